// Package bogon classifies IP addresses into RFC-reserved ("bogon") ranges:
// private-use, loopback, link-local, multicast, and similar non-routable
// blocks. Locality classification is a linear scan over a small static
// table and need not be optimized further.
package bogon

import "net/netip"

// Locality describes where an address falls relative to the reserved
// ranges recognized by this package.
type Locality int

const (
	Public Locality = iota
	Bogon
)

func (l Locality) String() string {
	if l == Bogon {
		return "bogon"
	}
	return "public"
}

type entry struct {
	ranges      []netip.Prefix
	singles     []netip.Addr
	description string
}

func mustPrefix(s string) netip.Prefix {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

func mustAddr(s string) netip.Addr {
	a, err := netip.ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// rangeEntry builds an entry from one or more CIDR prefix strings that
// together cover the range.
func rangeEntry(description string, prefixes ...string) entry {
	e := entry{description: description}
	for _, p := range prefixes {
		e.ranges = append(e.ranges, mustPrefix(p))
	}
	return e
}

func singleEntry(description string, addrs ...string) entry {
	e := entry{description: description}
	for _, a := range addrs {
		e.singles = append(e.singles, mustAddr(a))
	}
	return e
}

func (e entry) contains(addr netip.Addr) bool {
	for _, s := range e.singles {
		if s == addr {
			return true
		}
	}
	for _, p := range e.ranges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// table holds the 21-entry bogon list: IPv4 special-use blocks first, then
// IPv6. The IPv4-mapped and IPv4-compatible IPv6 blocks are not listed as
// separate entries. Ranges that aren't CIDR-aligned in the original
// source are expressed here as the equivalent set of CIDR prefixes.
var table = []entry{
	rangeEntry(`"this" network`, "0.0.0.0/8"),
	rangeEntry("private-use", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"),
	rangeEntry("carrier-grade NAT", "100.64.0.0/10"),
	rangeEntry("loopback", "127.0.0.0/8"),
	rangeEntry("link local", "169.254.0.0/16"),
	rangeEntry("IETF protocol assignments", "192.0.0.0/24"),
	rangeEntry("TEST-NET-1", "192.0.2.0/24"),
	rangeEntry("network interconnect device benchmark testing", "198.18.0.0/15"),
	rangeEntry("TEST-NET-2", "198.51.100.0/24"),
	rangeEntry("TEST-NET-3", "203.0.113.0/24"),
	rangeEntry("multicast", "224.0.0.0/4"),
	rangeEntry("future use", "240.0.0.0/4"),

	singleEntry("node-scope unicast unspecified", "::"),
	singleEntry("node-scope unicast loopback", "::1"),
	rangeEntry("remotely triggered black hole", "100::/64"),
	rangeEntry("ORCHID", "2001:10::/28"),
	rangeEntry("documentation prefix", "2001:db8::/32", "3fff::/20"),
	rangeEntry("ULA", "fc00::/7"),
	rangeEntry("link-local unicast", "fe80::/10"),
	rangeEntry("site-local unicast", "fec0::/10"),
	rangeEntry("multicast v6", "ff00::/8"),
}

// Describe returns the description of the bogon range containing addr, and
// true, or ("", false) if addr is not within any reserved range.
func Describe(addr netip.Addr) (string, bool) {
	addr = addr.Unmap()
	for _, e := range table {
		if e.contains(addr) {
			return e.description, true
		}
	}
	return "", false
}

// Classify reports whether addr falls in a reserved ("bogon") range.
func Classify(addr netip.Addr) Locality {
	if _, ok := Describe(addr); ok {
		return Bogon
	}
	return Public
}
