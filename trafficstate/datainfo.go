// Package trafficstate holds the shared traffic aggregate: per-flow,
// per-host, and per-service counters, plus the global totals and the
// Aggregator that owns them behind a single exclusive lock.
package trafficstate

// Direction classifies a packet relative to the capturing interface.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Multicast
	Broadcast
	Other
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Multicast:
		return "multicast"
	case Broadcast:
		return "broadcast"
	default:
		return "other"
	}
}

// DataInfo holds the four counters tracked for every flow, host, and
// service: packets and bytes, split by incoming/outgoing direction.
// Directions other than Incoming/Outgoing (Multicast, Broadcast, Other) are
// counted as incoming-equivalent "not outgoing", matching the binary
// incoming/outgoing split the original counters use.
type DataInfo struct {
	IncomingPackets uint64
	OutgoingPackets uint64
	IncomingBytes   uint64
	OutgoingBytes   uint64
}

// TotPackets returns the total packet count, both directions.
func (d DataInfo) TotPackets() uint64 {
	return d.IncomingPackets + d.OutgoingPackets
}

// TotBytes returns the total byte count, both directions.
func (d DataInfo) TotBytes() uint64 {
	return d.IncomingBytes + d.OutgoingBytes
}

// AddPacket records one packet of the given size and direction.
func (d *DataInfo) AddPacket(bytes uint64, dir Direction) {
	if dir == Outgoing {
		d.OutgoingPackets++
		d.OutgoingBytes += bytes
	} else {
		d.IncomingPackets++
		d.IncomingBytes += bytes
	}
}

// NewDataInfoWithFirstPacket builds a DataInfo seeded with a single packet.
func NewDataInfoWithFirstPacket(bytes uint64, dir Direction) DataInfo {
	var d DataInfo
	d.AddPacket(bytes, dir)
	return d
}

// Add accumulates rhs into d in place.
func (d *DataInfo) Add(rhs DataInfo) {
	d.IncomingPackets += rhs.IncomingPackets
	d.OutgoingPackets += rhs.OutgoingPackets
	d.IncomingBytes += rhs.IncomingBytes
	d.OutgoingBytes += rhs.OutgoingBytes
}
