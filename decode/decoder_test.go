package decode

import (
	"net"
	"testing"

	"github.com/netsentryhq/netsentry/internal/testpkt"
)

func TestCommitFirstFrameEthernetTCP(t *testing.T) {
	d := NewDecoder()
	frame := testpkt.TCP(net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2), 54321, 443, true, false, nil)

	h, err := d.CommitFirstFrame(frame)
	if err != nil {
		t.Fatalf("CommitFirstFrame: %v", err)
	}
	if d.LinkType() != Ethernet {
		t.Fatalf("LinkType = %v, want Ethernet", d.LinkType())
	}
	if h.Transport != "tcp" || *h.DstPort != 443 {
		t.Fatalf("Headers = %+v, want tcp/443", h)
	}
	if h.Source.String() != "10.0.0.1" || h.Dest.String() != "10.0.0.2" {
		t.Fatalf("addresses = %s -> %s", h.Source, h.Dest)
	}
}

func TestCommitFirstFrameThenSubsequentFramesUseSameLinkType(t *testing.T) {
	d := NewDecoder()
	first := testpkt.UDP(net.IPv4(192, 168, 1, 1), net.IPv4(192, 168, 1, 2), 5000, 53, nil)
	if _, err := d.CommitFirstFrame(first); err != nil {
		t.Fatalf("CommitFirstFrame: %v", err)
	}

	second := testpkt.UDP(net.IPv4(192, 168, 1, 3), net.IPv4(192, 168, 1, 4), 6000, 443, nil)
	h, err := d.Decode(second)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.Source.String() != "192.168.1.3" || *h.SrcPort != 6000 {
		t.Fatalf("Headers = %+v", h)
	}
}

func TestCommitFirstFrameRawIPv4(t *testing.T) {
	d := NewDecoder()
	frame := testpkt.RawIPv4UDP(net.IPv4(10, 1, 1, 1), net.IPv4(10, 1, 1, 2), 1111, 2222, []byte("hi"))

	h, err := d.CommitFirstFrame(frame)
	if err != nil {
		t.Fatalf("CommitFirstFrame: %v", err)
	}
	if d.LinkType() != RawIP {
		t.Fatalf("LinkType = %v, want RawIP", d.LinkType())
	}
	if h.Transport != "udp" || *h.DstPort != 2222 {
		t.Fatalf("Headers = %+v", h)
	}
}

func TestICMPv4TypeExtracted(t *testing.T) {
	d := NewDecoder()
	frame := testpkt.ICMPv4Echo(net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2))

	h, err := d.CommitFirstFrame(frame)
	if err != nil {
		t.Fatalf("CommitFirstFrame: %v", err)
	}
	if h.Transport != "icmp" || h.ICMPType == nil || *h.ICMPType != 8 {
		t.Fatalf("Headers = %+v, want icmp type 8", h)
	}
}

func TestDecodeUnsupportedLinkTypeErrors(t *testing.T) {
	d := NewDecoder()
	d.linkType = Unsupported
	if _, err := d.Decode([]byte{0x01}); err == nil {
		t.Fatalf("expected error decoding against an unsupported link type")
	}
}
