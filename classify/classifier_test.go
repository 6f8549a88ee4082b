package classify

import (
	"net"
	"net/netip"
	"testing"

	"github.com/netsentryhq/netsentry/decode"
	"github.com/netsentryhq/netsentry/internal/testpkt"
	"github.com/netsentryhq/netsentry/trafficstate"
)

func decodeFirst(t *testing.T, frame []byte) decode.Headers {
	t.Helper()
	d := decode.NewDecoder()
	h, err := d.CommitFirstFrame(frame)
	if err != nil {
		t.Fatalf("CommitFirstFrame: %v", err)
	}
	return h
}

func TestClassifyOutgoing(t *testing.T) {
	frame := testpkt.TCP(net.IPv4(10, 0, 0, 5), net.IPv4(93, 184, 216, 34), 51000, 443, true, false, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.5")})

	res := Classify(h, local, nil)
	if res.Direction != trafficstate.Outgoing {
		t.Errorf("Direction = %v, want Outgoing", res.Direction)
	}
	if res.Service.String() != "https" {
		t.Errorf("Service = %v, want https", res.Service)
	}
}

func TestClassifyIncoming(t *testing.T) {
	frame := testpkt.TCP(net.IPv4(93, 184, 216, 34), net.IPv4(10, 0, 0, 5), 443, 51000, false, true, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.5")})

	res := Classify(h, local, nil)
	if res.Direction != trafficstate.Incoming {
		t.Errorf("Direction = %v, want Incoming", res.Direction)
	}
}

func TestClassifyMulticastMDNS(t *testing.T) {
	frame := testpkt.UDP(net.IPv4(10, 0, 0, 5), net.IPv4(224, 0, 0, 251), 5353, 5353, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.9")})

	res := Classify(h, local, nil)
	if res.Direction != trafficstate.Multicast {
		t.Errorf("Direction = %v, want Multicast", res.Direction)
	}
	if res.Service.String() != "mdns" {
		t.Errorf("Service = %v, want mdns", res.Service)
	}
}

func TestClassifyBroadcastLimited(t *testing.T) {
	frame := testpkt.UDP(net.IPv4(10, 0, 0, 5), net.IPv4(255, 255, 255, 255), 68, 67, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.9")})

	res := Classify(h, local, nil)
	if res.Direction != trafficstate.Broadcast {
		t.Errorf("Direction = %v, want Broadcast", res.Direction)
	}
}

func TestClassifyDirectedBroadcast(t *testing.T) {
	frame := testpkt.UDP(net.IPv4(10, 0, 0, 5), net.IPv4(10, 0, 0, 255), 68, 67, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.9")})
	prefixes := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/24")}

	res := Classify(h, local, prefixes)
	if res.Direction != trafficstate.Broadcast {
		t.Errorf("Direction = %v, want Broadcast", res.Direction)
	}
}

func TestClassifyICMPIsNotApplicable(t *testing.T) {
	frame := testpkt.ICMPv4Echo(net.IPv4(10, 0, 0, 5), net.IPv4(10, 0, 0, 9))
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.5")})

	res := Classify(h, local, nil)
	if res.Service != trafficstate.NotApplicable {
		t.Errorf("Service = %v, want NotApplicable", res.Service)
	}
}

func TestClassifyDestPortWinsOverSrcPort(t *testing.T) {
	// Source port happens to also be a well-known port (80); destination
	// port (443) must still win since dest is tried first.
	frame := testpkt.TCP(net.IPv4(10, 0, 0, 5), net.IPv4(93, 184, 216, 34), 80, 443, true, false, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.5")})

	res := Classify(h, local, nil)
	if res.Service.String() != "https" {
		t.Errorf("Service = %v, want https (dest port wins)", res.Service)
	}
}

func TestClassifyUnknownServiceWhenNeitherPortResolves(t *testing.T) {
	frame := testpkt.TCP(net.IPv4(10, 0, 0, 5), net.IPv4(93, 184, 216, 34), 50001, 50002, true, false, nil)
	h := decodeFirst(t, frame)
	local := NewLocalAddrs([]netip.Addr{netip.MustParseAddr("10.0.0.5")})

	res := Classify(h, local, nil)
	if res.Service != trafficstate.Unknown {
		t.Errorf("Service = %v, want Unknown", res.Service)
	}
}
