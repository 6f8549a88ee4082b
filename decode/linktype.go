// Package decode determines the link-layer encapsulation of a capture once,
// then decodes each frame into an (IP header, transport header) pair.
package decode

import "github.com/google/gopacket/layers"

// LinkType records which link-layer encapsulation a capture committed to
// after the first-frame trial decode (spec §4.2). It is tracked per
// capture, both for display and so the decoder never retries trial-decode
// once committed.
type LinkType int

const (
	NotYetAssigned LinkType = iota
	Ethernet
	RawIP
	NullOrLoop
	LinuxSLL
	// LinuxSLL2 is recognized as a distinct encapsulation, but there is no
	// decoder for it here: IsSupported reports false for it.
	LinuxSLL2
	Unsupported
)

func (l LinkType) String() string {
	switch l {
	case Ethernet:
		return "Ethernet"
	case RawIP:
		return "Raw IP"
	case NullOrLoop:
		return "Null/Loop"
	case LinuxSLL:
		return "Linux SLL"
	case LinuxSLL2:
		return "Linux SLL2"
	case Unsupported:
		return "Unsupported"
	default:
		return "not yet assigned"
	}
}

// IsSupported reports whether frames on this link type can be decoded.
func (l LinkType) IsSupported() bool {
	return l != Unsupported && l != NotYetAssigned && l != LinuxSLL2
}

// FromGopacketLinkType maps a gopacket/pcap-reported link type to the
// subset this decoder understands, for capture paths where the link type
// is already known (e.g. reading a savefile written by this program) and
// the first-frame trial decode can be skipped.
func FromGopacketLinkType(lt layers.LinkType) LinkType {
	switch lt {
	case layers.LinkTypeEthernet:
		return Ethernet
	case layers.LinkTypeRaw:
		return RawIP
	case layers.LinkTypeNull, layers.LinkTypeLoop:
		return NullOrLoop
	case layers.LinkTypeLinuxSLL:
		return LinuxSLL
	default:
		return Unsupported
	}
}

// ToGopacketLinkType is the inverse of FromGopacketLinkType; types with no
// gopacket counterpart map to Ethernet.
func (l LinkType) ToGopacketLinkType() layers.LinkType {
	switch l {
	case Ethernet:
		return layers.LinkTypeEthernet
	case RawIP:
		return layers.LinkTypeRaw
	case NullOrLoop:
		return layers.LinkTypeNull
	case LinuxSLL:
		return layers.LinkTypeLinuxSLL
	default:
		return layers.LinkTypeEthernet
	}
}
