package trafficstate

import "testing"

func TestFlowKeyNormalizationIdempotentAndCommutative(t *testing.T) {
	a := NewFlowKey("10.0.0.1", 54321, "10.0.0.2", 80, TCP)
	b := NewFlowKey("10.0.0.2", 80, "10.0.0.1", 54321, TCP)
	if a != b {
		t.Errorf("expected symmetric keys to be equal: %+v != %+v", a, b)
	}

	c := NewFlowKey(a.LowerAddr, a.LowerPort, a.UpperAddr, a.UpperPort, TCP)
	if a != c {
		t.Errorf("expected normalization to be idempotent: %+v != %+v", a, c)
	}
}

func TestDataInfoAddPacket(t *testing.T) {
	d := NewDataInfoWithFirstPacket(100, Outgoing)
	d.AddPacket(200, Incoming)
	if d.TotPackets() != 2 {
		t.Errorf("TotPackets() = %d, want 2", d.TotPackets())
	}
	if d.TotBytes() != 300 {
		t.Errorf("TotBytes() = %d, want 300", d.TotBytes())
	}
	if d.OutgoingBytes != 100 || d.IncomingBytes != 200 {
		t.Errorf("direction split wrong: %+v", d)
	}
}

func TestDataInfoAddPacketBucketsNonOutgoingAsIncoming(t *testing.T) {
	for _, dir := range []Direction{Incoming, Multicast, Broadcast, Other} {
		var d DataInfo
		d.AddPacket(50, dir)
		if d.IncomingPackets != 1 || d.IncomingBytes != 50 || d.OutgoingPackets != 0 || d.OutgoingBytes != 0 {
			t.Errorf("AddPacket(50, %v) = %+v, want it bucketed as incoming", dir, d)
		}
	}
}

func TestServiceString(t *testing.T) {
	if Unknown.String() != "?" {
		t.Errorf("Unknown.String() = %q, want \"?\"", Unknown.String())
	}
	if NotApplicable.String() != "-" {
		t.Errorf("NotApplicable.String() = %q, want \"-\"", NotApplicable.String())
	}
	if NamedService("http").String() != "http" {
		t.Errorf("NamedService string mismatch")
	}
}
