package ticker

import (
	"net/netip"
	"testing"
	"time"

	"github.com/netsentryhq/netsentry/trafficstate"
)

func TestPublishOnceDrainsHostBatchAndDelta(t *testing.T) {
	agg := trafficstate.NewAggregator()
	key := trafficstate.NewFlowKey("a", 1, "b", 2, trafficstate.TCP)
	agg.RecordPacket(trafficstate.PacketUpdate{
		Timestamp: time.Now(), Bytes: 10, FilterPassed: true,
		Direction: trafficstate.Outgoing, Key: key, Service: trafficstate.Unknown,
	})

	var published []Tick
	tk := New(time.Hour, agg, func(tick Tick) { published = append(published, tick) })
	tk.RecordHostResolution(trafficstate.HostMessage{Address: netip.MustParseAddr("10.0.0.1")})

	tk.publishOnce(7, false)

	if len(published) != 1 {
		t.Fatalf("expected one published tick, got %d", len(published))
	}
	tick := published[0]
	if tick.CaptureID != 7 {
		t.Errorf("CaptureID = %d, want 7", tick.CaptureID)
	}
	if len(tick.HostBatch) != 1 {
		t.Errorf("HostBatch len = %d, want 1", len(tick.HostBatch))
	}
	if len(tick.Delta.Flows) != 1 {
		t.Errorf("Delta.Flows len = %d, want 1", len(tick.Delta.Flows))
	}

	// Host batch must be empty on the next tick; nothing new was recorded.
	tk.publishOnce(7, false)
	if len(published) != 2 || len(published[1].HostBatch) != 0 {
		t.Errorf("second tick should have an empty host batch")
	}
}

func TestPublishOnceAdvancesTiedTimestamp(t *testing.T) {
	agg := trafficstate.NewAggregator()
	ts := time.Now()
	agg.RecordPacket(trafficstate.PacketUpdate{Timestamp: ts, Bytes: 1, FilterPassed: false})

	var published []Tick
	tk := New(time.Hour, agg, func(tick Tick) { published = append(published, tick) })
	tk.publishOnce(1, false)

	agg2 := trafficstate.NewAggregator()
	agg2.RecordPacket(trafficstate.PacketUpdate{Timestamp: ts, Bytes: 1, FilterPassed: false})
	tk.aggregator = agg2
	tk.publishOnce(1, false)

	if !published[1].Delta.LastPacketTimestamp.After(published[0].Delta.LastPacketTimestamp) {
		t.Errorf("expected tied timestamp to be nudged forward: %v vs %v",
			published[1].Delta.LastPacketTimestamp, published[0].Delta.LastPacketTimestamp)
	}
}
