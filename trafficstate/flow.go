package trafficstate

import (
	"fmt"
	"time"
)

// Transport mirrors filter.Transport without importing the filter package,
// to keep trafficstate free of a dependency on packet-filtering concerns;
// classify is the only package that needs to convert between the two.
type Transport int

const (
	TCP Transport = iota
	UDP
	ICMP
)

func (t Transport) String() string {
	switch t {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return "ICMP"
	}
}

// FlowKey identifies a bidirectional conversation. It is symmetric-
// normalized: the lower endpoint (by string comparison of address, then
// port) always occupies the Lower* fields, so both halves of a conversation
// share the same key regardless of which side sent a given packet. For
// ICMP, both ports are zero; ICMP types are counted per flow in
// FlowRecord.ICMPTypes, not in the key.
type FlowKey struct {
	LowerAddr string
	LowerPort uint16
	UpperAddr string
	UpperPort uint16
	Transport Transport
}

// NewFlowKey builds a normalized FlowKey from an unordered pair of
// endpoints. Normalization is idempotent and commutative under endpoint
// swap: NewFlowKey(a,b) == NewFlowKey(b,a).
func NewFlowKey(addr1 string, port1 uint16, addr2 string, port2 uint16, transport Transport) FlowKey {
	if addr1 > addr2 || (addr1 == addr2 && port1 > port2) {
		addr1, addr2 = addr2, addr1
		port1, port2 = port2, port1
	}
	return FlowKey{
		LowerAddr: addr1,
		LowerPort: port1,
		UpperAddr: addr2,
		UpperPort: port2,
		Transport: transport,
	}
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%s:%d <-> %s:%d (%s)", k.LowerAddr, k.LowerPort, k.UpperAddr, k.UpperPort, k.Transport)
}

// FlowRecord is the per-flow aggregate.
type FlowRecord struct {
	Data        DataInfo
	FirstTS     time.Time
	LastTS      time.Time
	Service     Service
	Direction   Direction
	ICMPTypes   map[uint8]uint64
	Favorite    bool
}

// NewFlowRecord creates the first record for a flow from its opening
// packet.
func NewFlowRecord(bytes uint64, dir Direction, service Service, ts time.Time) *FlowRecord {
	r := &FlowRecord{
		Data:      NewDataInfoWithFirstPacket(bytes, dir),
		FirstTS:   ts,
		LastTS:    ts,
		Service:   service,
		Direction: dir,
	}
	return r
}

// Update records one more packet against an existing flow.
func (r *FlowRecord) Update(bytes uint64, dir Direction, ts time.Time) {
	r.Data.AddPacket(bytes, dir)
	if ts.After(r.LastTS) {
		r.LastTS = ts
	}
	if ts.Before(r.FirstTS) {
		r.FirstTS = ts
	}
}

// RecordICMPType increments the histogram entry for an observed ICMP type.
func (r *FlowRecord) RecordICMPType(t uint8) {
	if r.ICMPTypes == nil {
		r.ICMPTypes = make(map[uint8]uint64)
	}
	r.ICMPTypes[t]++
}

// Refresh merges a delta record into r, accumulating counters and widening
// the timestamp range, for use when a tick's delta flow map is folded into
// the presentation collaborator's cumulative copy.
func (r *FlowRecord) Refresh(delta *FlowRecord) {
	r.Data.Add(delta.Data)
	if delta.LastTS.After(r.LastTS) {
		r.LastTS = delta.LastTS
	}
	if delta.FirstTS.Before(r.FirstTS) {
		r.FirstTS = delta.FirstTS
	}
	for t, n := range delta.ICMPTypes {
		if r.ICMPTypes == nil {
			r.ICMPTypes = make(map[uint8]uint64)
		}
		r.ICMPTypes[t] += n
	}
	if delta.Favorite {
		r.Favorite = true
	}
}
