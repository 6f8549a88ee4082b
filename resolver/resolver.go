// Package resolver asynchronously enriches remote addresses with reverse
// DNS, country, and ASN data, per spec §4.6. It guarantees at most one
// in-flight resolution per address within a capture, buffers traffic that
// arrives while a resolution is in flight, and publishes a HostMessage
// exactly once per address when the resolution completes.
package resolver

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/netsentryhq/netsentry/bogon"
	"github.com/netsentryhq/netsentry/geo"
	"github.com/netsentryhq/netsentry/trafficstate"
)

// state is the per-address lifecycle: unseen (no cache entry) -> pending
// (in flight, buffering) -> resolved (terminal, bypasses pending).
type state int

const (
	pending state = iota
	resolved
)

type entry struct {
	state   state
	buffer  trafficstate.DataInfo
	host    trafficstate.Host
	rdns    string
}

// Resolver owns the per-address cache and dispatches reverse-DNS/MMDB
// lookups on its own goroutine per address.
type Resolver struct {
	mu       sync.Mutex
	states   *cache.Cache
	geo      *geo.Reader
	dnsTimeout time.Duration

	// captureID is bumped on every reset/new capture; resolutions that
	// complete for a stale captureID are discarded rather than published.
	captureID uint64

	publish func(trafficstate.HostMessage)
}

// New builds a Resolver. publish is called exactly once per address, from
// the resolving goroutine, when its enrichment completes and the
// capture that requested it is still current.
func New(geoReader *geo.Reader, publish func(trafficstate.HostMessage)) *Resolver {
	return &Resolver{
		states:     cache.New(cache.NoExpiration, cache.NoExpiration),
		geo:        geoReader,
		dnsTimeout: 3 * time.Second,
		publish:    publish,
	}
}

// Reset discards all in-flight and resolved state, and bumps the capture
// id so that any resolution goroutines still running from the prior
// capture discard their results instead of publishing them.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states.Flush()
	r.captureID++
}

// Submit implements the three-way dispatch in spec §4.6 for one packet
// observed against a remote address: not-seen spawns a resolution and
// seeds the pending buffer; pending adds to the buffer; resolved returns
// the already-known host so the caller can update the host map directly.
//
// The returned (host, ok) pair is only valid when ok is true, meaning the
// address was already resolved before this call.
func (r *Resolver) Submit(addr netip.Addr, data trafficstate.DataInfo) (host trafficstate.Host, ok bool) {
	key := addr.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	raw, found := r.states.Get(key)
	if !found {
		r.states.SetDefault(key, &entry{state: pending, buffer: data})
		captureID := r.captureID
		go r.resolve(addr, captureID)
		return trafficstate.Host{}, false
	}

	e := raw.(*entry)
	if e.state == pending {
		e.buffer.Add(data)
		return trafficstate.Host{}, false
	}
	return e.host, true
}

// resolve performs reverse DNS, then country lookup, then ASN lookup, and
// publishes the result. It runs on its own goroutine per address.
func (r *Resolver) resolve(addr netip.Addr, captureID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.dnsTimeout)
	defer cancel()

	rdns := ""
	if names, err := net.DefaultResolver.LookupAddr(ctx, addr.String()); err == nil && len(names) > 0 {
		rdns = names[0]
	}

	country := trafficstate.UnknownCountry
	var asn trafficstate.ASN
	if r.geo != nil {
		country = r.geo.Country(addr)
		asn = r.geo.ASN(addr)
	}

	host := trafficstate.Host{
		Domain:  trafficstate.DomainFromRDNS(rdns, addr),
		ASN:     asn,
		Country: country,
	}

	r.mu.Lock()
	if r.captureID != captureID {
		// A reset happened while this resolution was in flight; its
		// result belongs to a capture that no longer exists.
		r.mu.Unlock()
		return
	}

	key := addr.String()
	raw, found := r.states.Get(key)
	var buffered trafficstate.DataInfo
	if found {
		buffered = raw.(*entry).buffer
	}
	r.states.SetDefault(key, &entry{state: resolved, host: host, rdns: rdns})
	r.mu.Unlock()

	r.publish(trafficstate.HostMessage{
		Address: addr,
		RDNS:    rdns,
		Host:    host,
		Data:    buffered,
	})
}

// Locality classifies addr's numeric value against the bogon table,
// independent of its resolved domain name, per spec §4.6's last sentence.
func Locality(addr netip.Addr) trafficstate.Locality {
	return bogon.Classify(addr)
}
