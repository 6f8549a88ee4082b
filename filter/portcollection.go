// Package filter implements the static packet filter predicates: IP
// version, transport protocol, and the comma-separated literal/range
// address and port collections used to match traffic.
package filter

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	portSeparator      = ","
	portRangeSeparator = "-"
)

type portRange struct {
	lo, hi uint16
}

func (r portRange) contains(p uint16) bool {
	return p >= r.lo && p <= r.hi
}

// PortCollection is a parsed, validated set of individual ports and
// inclusive port ranges. The zero value is invalid; use NewPortCollection
// or DefaultPortCollection.
type PortCollection struct {
	ports  []uint16
	ranges []portRange
}

// DefaultPortCollection matches every port, including the absence of a
// port (e.g. ICMP).
func DefaultPortCollection() PortCollection {
	return PortCollection{ranges: []portRange{{lo: 0, hi: 65535}}}
}

// NewPortCollection parses a comma-separated list of ports and inclusive
// ranges ("80", "1024-65535"). Spaces are ignored. An empty string matches
// every port, identically to DefaultPortCollection. Malformed text is
// rejected with an error; the collection is never returned partially valid.
func NewPortCollection(s string) (PortCollection, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return DefaultPortCollection(), nil
	}

	var out PortCollection
	for _, object := range strings.Split(s, portSeparator) {
		if strings.Contains(object, portRangeSeparator) {
			parts := strings.SplitN(object, portRangeSeparator, 2)
			if len(parts) != 2 {
				return PortCollection{}, errors.Errorf("malformed port range %q", object)
			}
			lo, err := strconv.ParseUint(parts[0], 10, 16)
			if err != nil {
				return PortCollection{}, errors.Wrapf(err, "invalid lower bound in range %q", object)
			}
			hi, err := strconv.ParseUint(parts[1], 10, 16)
			if err != nil {
				return PortCollection{}, errors.Wrapf(err, "invalid upper bound in range %q", object)
			}
			if lo > hi {
				return PortCollection{}, errors.Errorf("empty range %q", object)
			}
			out.ranges = append(out.ranges, portRange{lo: uint16(lo), hi: uint16(hi)})
		} else {
			p, err := strconv.ParseUint(object, 10, 16)
			if err != nil {
				return PortCollection{}, errors.Wrapf(err, "invalid port %q", object)
			}
			out.ports = append(out.ports, uint16(p))
		}
	}
	return out, nil
}

// Contains reports whether port is matched by the collection. A nil port
// (e.g. ICMP, which has no port) always matches, since the port predicate
// does not apply to protocols without ports.
func (c PortCollection) Contains(port *uint16) bool {
	if port == nil {
		return true
	}
	for _, r := range c.ranges {
		if r.contains(*port) {
			return true
		}
	}
	for _, p := range c.ports {
		if p == *port {
			return true
		}
	}
	return false
}

// Equal reports whether two collections describe the same set of ports.
func (c PortCollection) Equal(other PortCollection) bool {
	if len(c.ports) != len(other.ports) || len(c.ranges) != len(other.ranges) {
		return false
	}
	for i := range c.ports {
		if c.ports[i] != other.ports[i] {
			return false
		}
	}
	for i := range c.ranges {
		if c.ranges[i] != other.ranges[i] {
			return false
		}
	}
	return true
}
