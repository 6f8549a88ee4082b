package trafficstate

import (
	"sync"
	"time"
)

// Aggregator owns the mutable traffic state behind a single exclusive
// lock. The lock is held only for the duration of a single packet's (or
// tick's) updates — never across I/O, per spec §5.
type Aggregator struct {
	mu    sync.Mutex
	delta *InfoTraffic
}

// NewAggregator returns an Aggregator with an empty delta.
func NewAggregator() *Aggregator {
	return &Aggregator{delta: New()}
}

// PacketUpdate is the full set of facts the classifier/filter stages have
// established about one accepted capture-layer read.
type PacketUpdate struct {
	Timestamp    time.Time
	Bytes        uint64
	FilterPassed bool
	Direction    Direction
	Key          FlowKey
	Service      Service
	ICMPType     *uint8
}

// RecordPacket applies the per-packet update steps of spec §4.5: global
// counters always; filtered totals, flow upsert, and
// service upsert only if the packet passed the filter.
func (a *Aggregator) RecordPacket(u PacketUpdate) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.delta.AllPackets++
	a.delta.AllBytes += u.Bytes
	if u.Timestamp.After(a.delta.LastPacketTimestamp) {
		a.delta.LastPacketTimestamp = u.Timestamp
	}

	if !u.FilterPassed {
		return
	}

	a.delta.TotDataInfo.AddPacket(u.Bytes, u.Direction)

	if rec, ok := a.delta.Flows[u.Key]; ok {
		rec.Update(u.Bytes, u.Direction, u.Timestamp)
		if u.ICMPType != nil {
			rec.RecordICMPType(*u.ICMPType)
		}
	} else {
		rec := NewFlowRecord(u.Bytes, u.Direction, u.Service, u.Timestamp)
		if u.ICMPType != nil {
			rec.RecordICMPType(*u.ICMPType)
		}
		a.delta.Flows[u.Key] = rec
	}

	if svc, ok := a.delta.Services[u.Service]; ok {
		svc.AddPacket(u.Bytes, u.Direction)
	} else {
		d := NewDataInfoWithFirstPacket(u.Bytes, u.Direction)
		a.delta.Services[u.Service] = &d
	}
}

// SetDroppedPackets records the capture library's current dropped-packet
// count, polled after each successful read.
func (a *Aggregator) SetDroppedPackets(n uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delta.DroppedPackets = n
}

// CommitHost folds a resolved host's traffic into the host map. The engine
// calls it for each filter-passing packet whose address is already
// resolved.
func (a *Aggregator) CommitHost(host Host, data DataInfo, locality Locality, favorite bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if rec, ok := a.delta.Hosts[host]; ok {
		rec.Data.Add(data)
		if favorite {
			rec.Favorite = true
		}
	} else {
		a.delta.Hosts[host] = &HostRecord{Data: data, Locality: locality, Favorite: favorite}
	}
}

// SwapDelta atomically replaces the in-flight delta with a fresh empty one
// and returns the swapped-out value — the Ticker's per-tick publish step.
func (a *Aggregator) SwapDelta() *InfoTraffic {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.delta.TakeButLeaveSomething()
}

// Reset discards all traffic state for a user-initiated reset, preserving
// only the last-timestamp and dropped-packet counter per spec's Lifecycle
// note. Callers are responsible for advancing the capture id alongside
// this call so in-flight asynchronous results from before the reset are
// discarded rather than applied to the new aggregate.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	lastTS := a.delta.LastPacketTimestamp
	dropped := a.delta.DroppedPackets
	a.delta = New()
	a.delta.LastPacketTimestamp = lastTS
	a.delta.DroppedPackets = dropped
}
