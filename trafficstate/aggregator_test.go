package trafficstate

import (
	"testing"
	"time"

	"github.com/netsentryhq/netsentry/bogon"
)

func TestAggregatorRecordPacketInvariants(t *testing.T) {
	a := NewAggregator()
	key := NewFlowKey("10.0.0.1", 54321, "10.0.0.2", 80, TCP)
	now := time.Now()

	a.RecordPacket(PacketUpdate{Timestamp: now, Bytes: 100, FilterPassed: true, Direction: Outgoing, Key: key, Service: NamedService("http")})
	a.RecordPacket(PacketUpdate{Timestamp: now.Add(time.Millisecond), Bytes: 200, FilterPassed: true, Direction: Incoming, Key: key, Service: NamedService("http")})

	delta := a.SwapDelta()

	if delta.AllPackets != 2 {
		t.Errorf("AllPackets = %d, want 2", delta.AllPackets)
	}
	if delta.TotDataInfo.TotPackets() != 2 {
		t.Errorf("TotDataInfo.TotPackets() = %d, want 2", delta.TotDataInfo.TotPackets())
	}
	if delta.TotDataInfo.TotBytes() != 300 {
		t.Errorf("TotDataInfo.TotBytes() = %d, want 300", delta.TotDataInfo.TotBytes())
	}
	if len(delta.Flows) != 1 {
		t.Fatalf("expected exactly one flow, got %d", len(delta.Flows))
	}
	rec := delta.Flows[key]
	if rec.Data.TotPackets() != 2 {
		t.Errorf("flow packets = %d, want 2", rec.Data.TotPackets())
	}
	var servicePackets uint64
	for _, svc := range delta.Services {
		servicePackets += svc.TotPackets()
	}
	if servicePackets != delta.TotDataInfo.TotPackets() {
		t.Errorf("service packets (%d) != tot_data_info packets (%d)", servicePackets, delta.TotDataInfo.TotPackets())
	}
}

func TestAggregatorFilterRejectedStillCountsGlobals(t *testing.T) {
	a := NewAggregator()
	a.RecordPacket(PacketUpdate{Timestamp: time.Now(), Bytes: 64, FilterPassed: false})

	delta := a.SwapDelta()
	if delta.AllPackets != 1 {
		t.Errorf("AllPackets = %d, want 1", delta.AllPackets)
	}
	if delta.TotDataInfo.TotPackets() != 0 {
		t.Errorf("TotDataInfo.TotPackets() = %d, want 0 for filtered-out packet", delta.TotDataInfo.TotPackets())
	}
	if len(delta.Flows) != 0 {
		t.Errorf("expected no flow entries for filtered-out packet")
	}
}

func TestAggregatorResetPreservesTimestampAndDropped(t *testing.T) {
	a := NewAggregator()
	ts := time.Now()
	a.RecordPacket(PacketUpdate{Timestamp: ts, Bytes: 10, FilterPassed: true, Direction: Outgoing, Key: NewFlowKey("a", 1, "b", 2, TCP), Service: Unknown})
	a.SetDroppedPackets(5)

	a.Reset()
	delta := a.SwapDelta()
	if len(delta.Flows) != 0 {
		t.Errorf("expected reset to clear flow map")
	}
	if delta.DroppedPackets != 5 {
		t.Errorf("DroppedPackets = %d, want 5 preserved across reset", delta.DroppedPackets)
	}
	if !delta.LastPacketTimestamp.Equal(ts) {
		t.Errorf("LastPacketTimestamp not preserved across reset")
	}
}

func TestAggregatorCommitHostMergesBufferedTraffic(t *testing.T) {
	a := NewAggregator()
	host := Host{Domain: "example.com", Country: "US"}
	a.CommitHost(host, NewDataInfoWithFirstPacket(100, Outgoing), bogon.Public, false)
	a.CommitHost(host, NewDataInfoWithFirstPacket(50, Incoming), bogon.Public, true)

	delta := a.SwapDelta()
	rec, ok := delta.Hosts[host]
	if !ok {
		t.Fatalf("expected host entry to exist")
	}
	if rec.Data.TotPackets() != 2 || rec.Data.TotBytes() != 150 {
		t.Errorf("merged host data = %+v, want 2 packets/150 bytes", rec.Data)
	}
	if !rec.Favorite {
		t.Errorf("expected favorite flag to be sticky once set")
	}
}
