package filter

import (
	"net/netip"

	"github.com/pkg/errors"
)

// IPVersion identifies the network layer protocol version a packet was
// carried on.
type IPVersion int

const (
	IPv4 IPVersion = iota
	IPv6
)

// Transport identifies the transport (or transport-equivalent) protocol a
// packet was carried on.
type Transport int

const (
	TCP Transport = iota
	UDP
	ICMP
)

// AllIPVersions and AllTransports are the default "match everything" sets,
// used both as the default filter and to detect whether a filter is
// narrower than default.
var (
	AllIPVersions  = map[IPVersion]bool{IPv4: true, IPv6: true}
	AllTransports  = map[Transport]bool{TCP: true, UDP: true, ICMP: true}
)

// PacketFields is the subset of a decoded packet that filter predicates are
// evaluated against.
type PacketFields struct {
	IP       IPVersion
	Protocol Transport
	Source   netip.Addr
	Dest     netip.Addr
	SrcPort  *uint16
	DstPort  *uint16
}

// Filters carries the four static predicates evaluated against every
// accepted packet: IP version set, transport set, address collection, and
// port collection. The zero value is not usable; construct with New.
type Filters struct {
	IPVersions  map[IPVersion]bool
	Transports  map[Transport]bool
	AddressText string
	Addresses   IPCollection
	PortText    string
	Ports       PortCollection
}

// Default returns a Filters value that matches all traffic.
func Default() Filters {
	return Filters{
		IPVersions: cloneVersions(AllIPVersions),
		Transports: cloneTransports(AllTransports),
		Addresses:  DefaultIPCollection(),
		Ports:      DefaultPortCollection(),
	}
}

func cloneVersions(m map[IPVersion]bool) map[IPVersion]bool {
	out := make(map[IPVersion]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneTransports(m map[Transport]bool) map[Transport]bool {
	out := make(map[Transport]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// New constructs a Filters value from the raw address/port text, validating
// both collections. An invalid collection causes construction to fail; the
// filter is never returned partially valid (spec's FilterConstructionError).
func New(ipVersions map[IPVersion]bool, transports map[Transport]bool, addressText, portText string) (Filters, error) {
	addrs, err := NewIPCollection(addressText)
	if err != nil {
		return Filters{}, errors.Wrap(err, "invalid address collection")
	}
	ports, err := NewPortCollection(portText)
	if err != nil {
		return Filters{}, errors.Wrap(err, "invalid port collection")
	}
	if len(ipVersions) == 0 {
		return Filters{}, errors.New("at least one IP version must be selected")
	}
	if len(transports) == 0 {
		return Filters{}, errors.New("at least one transport must be selected")
	}
	return Filters{
		IPVersions:  cloneVersions(ipVersions),
		Transports:  cloneTransports(transports),
		AddressText: addressText,
		Addresses:   addrs,
		PortText:    portText,
		Ports:       ports,
	}, nil
}

// Matches reports whether fields satisfies all four predicates. Address and
// port predicates match if either endpoint qualifies.
func (f Filters) Matches(fields PacketFields) bool {
	return f.IPVersions[fields.IP] &&
		f.Transports[fields.Protocol] &&
		(f.Addresses.Contains(fields.Source) || f.Addresses.Contains(fields.Dest)) &&
		(f.Ports.Contains(fields.SrcPort) || f.Ports.Contains(fields.DstPort))
}

// Valid reports whether the filter's raw text still parses; used to guard
// against applying a filter that was mutated into an invalid state.
func (f Filters) Valid() bool {
	if len(f.IPVersions) == 0 || len(f.Transports) == 0 {
		return false
	}
	if _, err := NewIPCollection(f.AddressText); err != nil {
		return false
	}
	if _, err := NewPortCollection(f.PortText); err != nil {
		return false
	}
	return true
}

// NoneActive reports whether the filter is equivalent to matching
// everything.
func (f Filters) NoneActive() bool {
	return !f.IPVersionActive() && !f.TransportActive() && !f.AddressActive() && !f.PortActive()
}

func (f Filters) IPVersionActive() bool {
	return len(f.IPVersions) != len(AllIPVersions)
}

func (f Filters) TransportActive() bool {
	return len(f.Transports) != len(AllTransports)
}

func (f Filters) AddressActive() bool {
	return !f.Addresses.Equal(DefaultIPCollection())
}

func (f Filters) PortActive() bool {
	return !f.Ports.Equal(DefaultPortCollection())
}
