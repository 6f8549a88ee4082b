package filter

import (
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

const (
	addrSeparator      = ","
	addrRangeSeparator = "-"
)

type addrRange struct {
	lo, hi netip.Addr
}

func (r addrRange) contains(a netip.Addr) bool {
	return a.Compare(r.lo) >= 0 && a.Compare(r.hi) <= 0
}

// IPCollection is a parsed, validated set of individual addresses and
// inclusive address ranges, IPv4 and IPv6 literals freely mixed.
type IPCollection struct {
	ranges []addrRange
}

// DefaultIPCollection matches every address.
func DefaultIPCollection() IPCollection {
	return IPCollection{ranges: []addrRange{
		{lo: netip.IPv4Unspecified(), hi: netip.MustParseAddr("255.255.255.255")},
		{lo: netip.IPv6Unspecified(), hi: netip.MustParseAddr("ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff")},
	}}
}

// NewIPCollection parses a comma-separated list of address literals and
// inclusive ranges ("10.0.0.0-10.0.0.255", "2001:db8::1"). Spaces are
// ignored. An empty string matches every address. Malformed text is
// rejected with an error; the collection is never returned partially valid.
func NewIPCollection(s string) (IPCollection, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return DefaultIPCollection(), nil
	}

	var out IPCollection
	for _, object := range strings.Split(s, addrSeparator) {
		if strings.Contains(object, addrRangeSeparator) && strings.Count(object, ":") == 0 {
			// IPv4 literal/range disambiguation: only IPv4 text can contain a
			// bare '-' outside of a full address, since IPv6 literals never
			// contain '-'.
			parts := strings.SplitN(object, addrRangeSeparator, 2)
			lo, err := netip.ParseAddr(parts[0])
			if err != nil {
				return IPCollection{}, errors.Wrapf(err, "invalid lower bound in range %q", object)
			}
			hi, err := netip.ParseAddr(parts[1])
			if err != nil {
				return IPCollection{}, errors.Wrapf(err, "invalid upper bound in range %q", object)
			}
			if lo.Compare(hi) > 0 {
				return IPCollection{}, errors.Errorf("empty range %q", object)
			}
			out.ranges = append(out.ranges, addrRange{lo: lo, hi: hi})
		} else if idx := lastRangeDash(object); idx >= 0 {
			lo, err := netip.ParseAddr(object[:idx])
			if err != nil {
				return IPCollection{}, errors.Wrapf(err, "invalid lower bound in range %q", object)
			}
			hi, err := netip.ParseAddr(object[idx+1:])
			if err != nil {
				return IPCollection{}, errors.Wrapf(err, "invalid upper bound in range %q", object)
			}
			if lo.Compare(hi) > 0 {
				return IPCollection{}, errors.Errorf("empty range %q", object)
			}
			out.ranges = append(out.ranges, addrRange{lo: lo, hi: hi})
		} else {
			addr, err := netip.ParseAddr(object)
			if err != nil {
				return IPCollection{}, errors.Wrapf(err, "invalid address %q", object)
			}
			out.ranges = append(out.ranges, addrRange{lo: addr, hi: addr})
		}
	}
	return out, nil
}

// lastRangeDash finds the '-' that separates two IPv6 addresses in a range
// expression, distinguishing it from the '-'-free IPv6 literal syntax. IPv6
// literals never contain '-', so any standalone IPv6 range must be split at
// the single '-' that appears once two complete addresses are joined; we
// locate it by requiring both halves to parse as addresses elsewhere, so
// here we just find a '-' that is not part of "::" at the edges.
func lastRangeDash(s string) int {
	if strings.Count(s, ":") == 0 {
		return -1
	}
	idx := strings.Index(s, addrRangeSeparator)
	if idx <= 0 || idx >= len(s)-1 {
		return -1
	}
	return idx
}

// Contains reports whether addr is matched by the collection.
func (c IPCollection) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, r := range c.ranges {
		if r.contains(addr) {
			return true
		}
	}
	return false
}

// Equal reports whether two collections describe the same set of addresses.
func (c IPCollection) Equal(other IPCollection) bool {
	if len(c.ranges) != len(other.ranges) {
		return false
	}
	for i := range c.ranges {
		if c.ranges[i] != other.ranges[i] {
			return false
		}
	}
	return true
}
