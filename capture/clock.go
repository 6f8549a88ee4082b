package capture

import "time"

// clockWrapper lets tests substitute a fake wall clock without involving
// real timer waits, the same seam the teacher's pcap package uses.
type clockWrapper interface {
	Now() time.Time
}

type realClock struct{}

func (*realClock) Now() time.Time { return time.Now() }

type fakeClock struct {
	currTime time.Time
}

func (f *fakeClock) Now() time.Time { return f.currTime }
