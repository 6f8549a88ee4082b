// Package classify turns decoded headers and the local interface address
// set into a flow key, traffic direction, and inferred service, per spec
// §4.3. It depends on decode for Headers, trafficstate for the FlowKey/
// Direction/Service vocabulary, and classify/services for the port table.
package classify

import (
	"net/netip"

	"github.com/netsentryhq/netsentry/classify/services"
	"github.com/netsentryhq/netsentry/decode"
	"github.com/netsentryhq/netsentry/filter"
	"github.com/netsentryhq/netsentry/trafficstate"
)

// LocalAddrs is the set of addresses bound to the interface being
// captured on, used to resolve traffic direction.
type LocalAddrs map[netip.Addr]bool

func NewLocalAddrs(addrs []netip.Addr) LocalAddrs {
	m := make(LocalAddrs, len(addrs))
	for _, a := range addrs {
		m[a.Unmap()] = true
	}
	return m
}

func (l LocalAddrs) contains(a netip.Addr) bool {
	return l[a.Unmap()]
}

var (
	ipv4Multicast = netip.MustParsePrefix("224.0.0.0/4")
	ipv6Multicast = netip.MustParsePrefix("ff00::/8")
	limitedBcast  = netip.MustParseAddr("255.255.255.255")
)

// isDirectedBroadcast reports whether addr is the directed broadcast
// address of any local IPv4 subnet, i.e. the host bits are all ones
// relative to a locally configured prefix.
func isDirectedBroadcast(addr netip.Addr, localPrefixes []netip.Prefix) bool {
	if !addr.Is4() {
		return false
	}
	for _, p := range localPrefixes {
		if !p.Addr().Is4() || !p.Contains(addr) {
			continue
		}
		bcast := directedBroadcastOf(p)
		if bcast == addr {
			return true
		}
	}
	return false
}

func directedBroadcastOf(p netip.Prefix) netip.Addr {
	b := p.Addr().As4()
	bits := p.Bits()
	hostBits := 32 - bits
	for i := 0; i < hostBits; i++ {
		byteIdx := 3 - i/8
		bitIdx := uint(i % 8)
		b[byteIdx] |= 1 << bitIdx
	}
	return netip.AddrFrom4(b)
}

// Result is everything the Classifier derives from one frame's headers.
type Result struct {
	Key       trafficstate.FlowKey
	Direction trafficstate.Direction
	Service   trafficstate.Service
	Fields    filter.PacketFields
}

// Classify implements spec §4.3: FlowKey construction, direction
// resolution (outgoing/incoming/multicast/broadcast/other, in that exact
// precedence), and service lookup (destination port first, then source
// port, first hit wins; ICMP/ARP always NotApplicable).
func Classify(h decode.Headers, local LocalAddrs, localPrefixes []netip.Prefix) Result {
	transport := trafficstate.TCP
	protoName := filter.TCP
	switch h.Transport {
	case "udp":
		transport = trafficstate.UDP
		protoName = filter.UDP
	case "icmp", "icmpv6":
		transport = trafficstate.ICMP
		protoName = filter.ICMP
	}

	var srcPort, dstPort uint16
	if h.SrcPort != nil {
		srcPort = *h.SrcPort
	}
	if h.DstPort != nil {
		dstPort = *h.DstPort
	}

	key := trafficstate.NewFlowKey(h.Source.String(), srcPort, h.Dest.String(), dstPort, transport)

	dir := classifyDirection(h.Source, h.Dest, local, localPrefixes)

	svc := classifyService(h, transport)

	ipVersion := filter.IPv4
	if h.Source.Is6() && !h.Source.Is4In6() {
		ipVersion = filter.IPv6
	}

	var srcPortP, dstPortP *uint16
	if h.SrcPort != nil {
		srcPortP = h.SrcPort
	}
	if h.DstPort != nil {
		dstPortP = h.DstPort
	}

	return Result{
		Key:       key,
		Direction: dir,
		Service:   svc,
		Fields: filter.PacketFields{
			IP:       ipVersion,
			Protocol: protoName,
			Source:   h.Source,
			Dest:     h.Dest,
			SrcPort:  srcPortP,
			DstPort:  dstPortP,
		},
	}
}

func classifyDirection(src, dst netip.Addr, local LocalAddrs, localPrefixes []netip.Prefix) trafficstate.Direction {
	switch {
	case local.contains(src):
		return trafficstate.Outgoing
	case local.contains(dst):
		return trafficstate.Incoming
	case isMulticast(dst):
		return trafficstate.Multicast
	case dst == limitedBcast || isDirectedBroadcast(dst, localPrefixes):
		return trafficstate.Broadcast
	default:
		return trafficstate.Other
	}
}

func isMulticast(addr netip.Addr) bool {
	if addr.Is4() {
		return ipv4Multicast.Contains(addr)
	}
	return ipv6Multicast.Contains(addr.Unmap())
}

func classifyService(h decode.Headers, transport trafficstate.Transport) trafficstate.Service {
	if transport == trafficstate.ICMP {
		return trafficstate.NotApplicable
	}

	proto := services.TCP
	if transport == trafficstate.UDP {
		proto = services.UDP
	}

	if h.DstPort != nil {
		if name, ok := services.Lookup(*h.DstPort, proto); ok {
			return trafficstate.NamedService(name)
		}
	}
	if h.SrcPort != nil {
		if name, ok := services.Lookup(*h.SrcPort, proto); ok {
			return trafficstate.NamedService(name)
		}
	}
	return trafficstate.Unknown
}
