// Package testpkt builds serialized Ethernet/IP/TCP/UDP frames for use in
// table-driven tests across decode, classify, and trafficstate, so each
// package doesn't hand-roll its own packet bytes.
package testpkt

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	srcMAC = net.HardwareAddr{0xFF, 0xAA, 0xFA, 0xAA, 0xFF, 0xAA}
	dstMAC = net.HardwareAddr{0xBD, 0xBD, 0xBD, 0xBD, 0xBD, 0xBD}
)

func ethType(src net.IP) layers.EthernetType {
	if src.To4() != nil {
		return layers.EthernetTypeIPv4
	}
	return layers.EthernetTypeIPv6
}

func ipLayer(src, dst net.IP, proto layers.IPProtocol) gopacket.SerializableLayer {
	if v4 := src.To4(); v4 != nil {
		return &layers.IPv4{Version: 4, TTL: 64, Protocol: proto, SrcIP: src, DstIP: dst}
	}
	return &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: proto, SrcIP: src, DstIP: dst}
}

// TCP serializes an Ethernet/IP/TCP frame, returning the raw bytes as they
// would appear on an Ethernet-linktype capture.
func TCP(src, dst net.IP, srcPort, dstPort int, syn, ack bool, payload []byte) []byte {
	eth := &layers.Ethernet{EthernetType: ethType(src), SrcMAC: srcMAC, DstMAC: dstMAC}
	ip := ipLayer(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), SYN: syn, ACK: ack, Window: 1024}
	if v4, ok := ip.(*layers.IPv4); ok {
		tcp.SetNetworkLayerForChecksum(v4)
	} else {
		tcp.SetNetworkLayerForChecksum(ip.(*layers.IPv6))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload))
	return buf.Bytes()
}

// UDP serializes an Ethernet/IP/UDP frame.
func UDP(src, dst net.IP, srcPort, dstPort int, payload []byte) []byte {
	eth := &layers.Ethernet{EthernetType: ethType(src), SrcMAC: srcMAC, DstMAC: dstMAC}
	ip := ipLayer(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	if v4, ok := ip.(*layers.IPv4); ok {
		udp.SetNetworkLayerForChecksum(v4)
	} else {
		udp.SetNetworkLayerForChecksum(ip.(*layers.IPv6))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload))
	return buf.Bytes()
}

// ICMPv4Echo serializes an Ethernet/IPv4/ICMPv4 echo-request frame.
func ICMPv4Echo(src, dst net.IP) []byte {
	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeIPv4, SrcMAC: srcMAC, DstMAC: dstMAC}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolICMPv4, SrcIP: src, DstIP: dst}
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	gopacket.SerializeLayers(buf, opts, eth, ip, icmp)
	return buf.Bytes()
}

// RawIPv4UDP serializes a bare IPv4/UDP frame with no link-layer header, as
// seen on a raw-IP-linktype capture (e.g. some VPN/tunnel interfaces).
func RawIPv4UDP(src, dst net.IP, srcPort, dstPort int, payload []byte) []byte {
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP, SrcIP: src, DstIP: dst}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload))
	return buf.Bytes()
}
