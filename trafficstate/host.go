package trafficstate

import (
	"net/netip"
	"strings"

	"github.com/netsentryhq/netsentry/bogon"
)

// Host identifies a remote endpoint after enrichment: its reverse-DNS
// domain, the name of the autonomous system that operates it, and its
// two-letter country code. Two addresses that resolve to the same triple
// collapse to a single Host.
type Host struct {
	Domain string
	ASN    ASN
	Country string // ISO 3166-1 alpha-2, "ZZ" if unknown.
}

// ASN identifies an autonomous system.
type ASN struct {
	Number uint32
	Name   string
}

// UnknownCountry is used when geolocation has no answer for an address.
const UnknownCountry = "ZZ"

// DomainFromRDNS derives the Host.Domain field from a reverse-DNS PTR name:
// the last two labels of the name, or the address's textual form if rDNS
// failed or returned nothing.
func DomainFromRDNS(rdns string, addr netip.Addr) string {
	rdns = strings.TrimSuffix(rdns, ".")
	if rdns == "" {
		return addr.String()
	}
	labels := strings.Split(rdns, ".")
	if len(labels) <= 2 {
		return rdns
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// EntryString renders a Host for the per-host traffic view: "domain - asn".
func (h Host) EntryString() string {
	if h.ASN.Name == "" {
		return h.Domain
	}
	return h.Domain + " - " + h.ASN.Name
}

// ThumbnailString renders a Host for a compact summary view: prefers the
// domain unless it is blank or a bare IP address, in which case it falls
// back to the ASN name.
func (h Host) ThumbnailString() string {
	domain := strings.TrimSpace(h.Domain)
	_, parseErr := netip.ParseAddr(h.Domain)
	if h.ASN.Name == "" || (domain != "" && parseErr != nil) {
		return h.Domain
	}
	return h.ASN.Name
}

// Locality classifies a Host's numeric address at resolution time, using
// the bogon table, independent of the resolved domain name.
type Locality = bogon.Locality

// HostRecord is the per-host aggregate: traffic counters, locality, and
// whether this host is in the user's favorites set.
type HostRecord struct {
	Data     DataInfo
	Locality Locality
	Favorite bool
}

// Refresh merges delta into r in place: counters are added, Locality is
// replaced, and Favorite stays set once either side has it.
func (r *HostRecord) Refresh(delta HostRecord) {
	r.Data.Add(delta.Data)
	r.Locality = delta.Locality
	if delta.Favorite {
		r.Favorite = true
	}
}

// HostMessage is published by the Resolver once an address's enrichment
// completes: the Host identity, its accumulated traffic, the address that
// was resolved, and the raw rDNS answer (for diagnostics/display).
type HostMessage struct {
	Address netip.Addr
	RDNS    string
	Host    Host
	Data    DataInfo
}
