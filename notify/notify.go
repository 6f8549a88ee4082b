// Package notify compares ticker deltas against user-configured
// thresholds and the favorite-host set, emitting notification events into
// a fixed-size ring buffer, per spec §4.8.
package notify

import (
	"container/ring"
	"sync"
	"time"

	"github.com/netsentryhq/netsentry/trafficstate"
)

const ringCapacity = 30

// Sound names the audio cue an external playback collaborator should use.
// Suppression (volume zero or Sound == SoundNone) is carried as pure data;
// this package never touches audio hardware.
type Sound int

const (
	SoundNone Sound = iota
	SoundGulp
	SoundPop
	SoundSwhoosh
)

// Kind identifies which of the three notification rules fired.
type Kind int

const (
	KindPackets Kind = iota
	KindBytes
	KindFavorite
)

// Event is one fired notification, carrying the delta values that
// triggered it and a wall-clock timestamp. PacketsThreshold/BytesThreshold
// events carry the incoming/outgoing split alongside the total, matching
// the original's PacketsThresholdExceeded/BytesThresholdExceeded shape.
type Event struct {
	Kind Kind
	At   time.Time

	Packets         uint64
	IncomingPackets uint64
	OutgoingPackets uint64

	Bytes         uint64
	IncomingBytes uint64
	OutgoingBytes uint64

	Favorites []trafficstate.Host
	Sound     Sound
}

// Config holds the three notification rules' thresholds, grounded on
// PacketsNotification/BytesNotification/FavoriteNotification.
type Config struct {
	Volume uint8

	PacketsThreshold uint32
	PacketsSound     Sound

	BytesThreshold uint64
	ByteMultiple   ByteMultiple
	BytesSound     Sound

	NotifyOnFavorite bool
	FavoriteSound    Sound
}

// DefaultConfig mirrors the original's Notifications::default().
func DefaultConfig() Config {
	return Config{
		Volume:           60,
		PacketsThreshold: 750,
		PacketsSound:     SoundGulp,
		BytesThreshold:   800_000,
		ByteMultiple:     KB,
		BytesSound:       SoundPop,
		NotifyOnFavorite: false,
		FavoriteSound:    SoundSwhoosh,
	}
}

// Notifier holds the current config and the 30-slot event ring buffer.
type Notifier struct {
	mu     sync.Mutex
	cfg    Config
	events *ring.Ring
}

func New(cfg Config) *Notifier {
	return &Notifier{cfg: cfg, events: ring.New(ringCapacity)}
}

// SetConfig replaces the active thresholds, e.g. after a settings change.
func (n *Notifier) SetConfig(cfg Config) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg = cfg
}

// Consume evaluates one tick's delta against all three rules, records any
// fired events in the ring buffer, and returns them for immediate
// dispatch (e.g. to an audio collaborator).
func (n *Notifier) Consume(delta *trafficstate.InfoTraffic, favorites map[trafficstate.Host]bool, at time.Time) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	var fired []Event

	totPackets := delta.TotDataInfo.TotPackets()
	if n.cfg.PacketsThreshold > 0 && totPackets > uint64(n.cfg.PacketsThreshold) {
		fired = append(fired, Event{
			Kind:            KindPackets,
			At:              at,
			Packets:         totPackets,
			IncomingPackets: delta.TotDataInfo.IncomingPackets,
			OutgoingPackets: delta.TotDataInfo.OutgoingPackets,
			Sound:           n.soundFor(n.cfg.PacketsSound),
		})
	}

	totBytes := delta.TotDataInfo.TotBytes()
	if n.cfg.BytesThreshold > 0 && totBytes > n.cfg.BytesThreshold {
		fired = append(fired, Event{
			Kind:          KindBytes,
			At:            at,
			Bytes:         totBytes,
			IncomingBytes: delta.TotDataInfo.IncomingBytes,
			OutgoingBytes: delta.TotDataInfo.OutgoingBytes,
			Sound:         n.soundFor(n.cfg.BytesSound),
		})
	}

	if n.cfg.NotifyOnFavorite && len(favorites) > 0 {
		var matched []trafficstate.Host
		for host := range delta.Hosts {
			if favorites[host] {
				matched = append(matched, host)
			}
		}
		if len(matched) > 0 {
			fired = append(fired, Event{Kind: KindFavorite, At: at, Favorites: matched, Sound: n.soundFor(n.cfg.FavoriteSound)})
		}
	}

	for _, ev := range fired {
		n.events.Value = ev
		n.events = n.events.Next()
	}

	return fired
}

// soundFor applies the volume-zero suppression rule: a notification still
// fires (it is still recorded and returned) but its Sound is SoundNone
// when the configured volume is zero, so the audio collaborator has
// nothing to play.
func (n *Notifier) soundFor(s Sound) Sound {
	if n.cfg.Volume == 0 {
		return SoundNone
	}
	return s
}

// Recent returns up to the last 30 fired events, oldest first.
func (n *Notifier) Recent() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Event
	n.events.Do(func(v interface{}) {
		if v == nil {
			return
		}
		out = append(out, v.(Event))
	})
	return out
}
