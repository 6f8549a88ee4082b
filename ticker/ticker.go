// Package ticker runs the fixed-period (1 Hz) snapshot publication
// described in spec §4.7: swap the aggregator's delta, attach any
// resolved hosts accumulated since the last tick, and hand the result to
// the presentation collaborator and the notifier.
package ticker

import (
	"sync"
	"time"

	"github.com/netsentryhq/netsentry/trafficstate"
)

// Tick is one published snapshot.
type Tick struct {
	CaptureID       uint64
	Delta           *trafficstate.InfoTraffic
	HostBatch       []trafficstate.HostMessage
	OfflineFinished bool
}

// Ticker owns the period timer and the host-resolution batch buffer fed by
// the Resolver's publish callback.
type Ticker struct {
	period     time.Duration
	aggregator *trafficstate.Aggregator
	onTick     func(Tick)

	hostBatchMu sync.Mutex
	hostBatch   []trafficstate.HostMessage

	lastTimestamp time.Time
}

// New builds a Ticker that calls onTick once per period.
func New(period time.Duration, aggregator *trafficstate.Aggregator, onTick func(Tick)) *Ticker {
	return &Ticker{period: period, aggregator: aggregator, onTick: onTick}
}

// RecordHostResolution queues a completed host resolution for inclusion in
// the next tick's HostBatch. It is the callback passed to resolver.New.
func (t *Ticker) RecordHostResolution(msg trafficstate.HostMessage) {
	t.hostBatchMu.Lock()
	defer t.hostBatchMu.Unlock()
	t.hostBatch = append(t.hostBatch, msg)
}

func (t *Ticker) drainHostBatch() []trafficstate.HostMessage {
	t.hostBatchMu.Lock()
	defer t.hostBatchMu.Unlock()
	if len(t.hostBatch) == 0 {
		return nil
	}
	batch := t.hostBatch
	t.hostBatch = nil
	return batch
}

// Run blocks, ticking at the configured period until stop is closed. Each
// tick swaps the aggregator's delta, normalizes its LastPacketTimestamp
// against the previous tick's, drains the host batch, and publishes.
func (t *Ticker) Run(captureID uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.publishOnce(captureID, false)
		}
	}
}

// RunOffline ticks at the configured period like Run, for PCAP-file
// captures where ticks must stop the instant the file is exhausted. The
// caller closes exhausted to signal EOF, at which point RunOffline
// publishes one final tick with OfflineFinished set and returns.
func (t *Ticker) RunOffline(captureID uint64, stop <-chan struct{}, exhausted <-chan struct{}) {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-exhausted:
			t.publishOnce(captureID, true)
			return
		case <-ticker.C:
			t.publishOnce(captureID, false)
		}
	}
}

func (t *Ticker) publishOnce(captureID uint64, offlineFinished bool) {
	delta := t.aggregator.SwapDelta()

	// Dis-alignment fix-up: PCAP timestamps can tie across tick
	// boundaries; nudge forward by one second to preserve the
	// last-packet-timestamp monotonicity invariant.
	if !t.lastTimestamp.IsZero() && !delta.LastPacketTimestamp.IsZero() && !delta.LastPacketTimestamp.After(t.lastTimestamp) {
		delta.LastPacketTimestamp = t.lastTimestamp.Add(time.Second)
	}
	if !delta.LastPacketTimestamp.IsZero() {
		t.lastTimestamp = delta.LastPacketTimestamp
	}

	t.onTick(Tick{
		CaptureID:       captureID,
		Delta:           delta,
		HostBatch:       t.drainHostBatch(),
		OfflineFinished: offlineFinished,
	})
}
