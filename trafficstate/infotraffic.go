package trafficstate

import "time"

// InfoTraffic is the full traffic aggregate: global counters plus the
// filtered flow/service/host maps. The Aggregator mutates one of these
// behind its lock; the Ticker swaps it out for an empty one on each tick.
type InfoTraffic struct {
	TotDataInfo         DataInfo
	AllPackets          uint64
	AllBytes            uint64
	DroppedPackets      uint32
	LastPacketTimestamp time.Time

	Flows    map[FlowKey]*FlowRecord
	Services map[Service]*DataInfo
	Hosts    map[Host]*HostRecord
}

// New returns an empty InfoTraffic with initialized maps.
func New() *InfoTraffic {
	return &InfoTraffic{
		Flows:    make(map[FlowKey]*FlowRecord),
		Services: make(map[Service]*DataInfo),
		Hosts:    make(map[Host]*HostRecord),
	}
}

// Refresh merges delta into t in place: the cumulative-view side of the
// tick protocol. Counters accumulate; per-key maps are merged entry by
// entry; last_packet_timestamp is nudged forward by one second if it would
// otherwise tie the previous tick's value, since PCAP timestamps can
// dis-align at second boundaries across ticks.
func (t *InfoTraffic) Refresh(delta *InfoTraffic) {
	t.TotDataInfo.Add(delta.TotDataInfo)
	t.AllPackets += delta.AllPackets
	t.AllBytes += delta.AllBytes
	t.DroppedPackets = delta.DroppedPackets

	if !t.LastPacketTimestamp.IsZero() && t.LastPacketTimestamp.Equal(delta.LastPacketTimestamp) {
		delta.LastPacketTimestamp = delta.LastPacketTimestamp.Add(time.Second)
	}
	t.LastPacketTimestamp = delta.LastPacketTimestamp

	for key, value := range delta.Flows {
		if existing, ok := t.Flows[key]; ok {
			existing.Refresh(value)
		} else {
			t.Flows[key] = value
		}
	}
	for key, value := range delta.Services {
		if existing, ok := t.Services[key]; ok {
			existing.Add(*value)
		} else {
			cp := *value
			t.Services[key] = &cp
		}
	}
	for key, value := range delta.Hosts {
		if existing, ok := t.Hosts[key]; ok {
			existing.Refresh(*value)
		} else {
			cp := *value
			t.Hosts[key] = &cp
		}
	}
}

// ThumbnailData reports the incoming and outgoing bytes that passed the
// filter, the bytes that were filtered out (AllBytes minus both), and the
// dropped-packet count, used by the thumbnail summary view.
func (t *InfoTraffic) ThumbnailData() (incoming, outgoing, filtered, dropped uint64) {
	incoming = t.TotDataInfo.IncomingBytes
	outgoing = t.TotDataInfo.OutgoingBytes
	filtered = t.AllBytes - incoming - outgoing
	dropped = uint64(t.DroppedPackets)
	return
}

// TakeButLeaveSomething swaps out the current aggregate for a fresh empty
// one, preserving only last_packet_timestamp and dropped_packets, and
// returns the swapped-out value (the delta to publish). This is the
// mechanism behind the Ticker's atomic swap (§4.5/§4.7). Aggregator.Reset
// applies the same rule, discarding the traffic maps but keeping those two
// carried-forward fields.
func (t *InfoTraffic) TakeButLeaveSomething() *InfoTraffic {
	carried := New()
	carried.LastPacketTimestamp = t.LastPacketTimestamp
	carried.DroppedPackets = t.DroppedPackets

	taken := *t
	*t = *carried
	return &taken
}
