// Package engine wires capture, decode, classify, filter, and the
// aggregator into the concurrent pipeline of spec §5, and runs the
// resolver and ticker alongside it. It is the direct analogue of the
// teacher's pcap.Collect: an Engine owns at most one open capture source
// at a time and exposes Start/Stop/Reset to whatever presentation
// collaborator is watching Config.OnTick.
package engine

import (
	"io"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/netsentryhq/netsentry/capture"
	"github.com/netsentryhq/netsentry/classify"
	"github.com/netsentryhq/netsentry/decode"
	"github.com/netsentryhq/netsentry/filter"
	"github.com/netsentryhq/netsentry/geo"
	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/resolver"
	"github.com/netsentryhq/netsentry/ticker"
	"github.com/netsentryhq/netsentry/trafficstate"
)

// Source names exactly one capture input: a live interface, or a PCAP
// file to replay.
type Source struct {
	InterfaceName string
	OfflineFile   string
	BPFFilter     string
}

// Config is everything the Engine needs to run a capture.
type Config struct {
	Source       Source
	SavefilePath string
	TickPeriod   time.Duration

	Filters   filter.Filters
	Favorites map[trafficstate.Host]bool
	GeoReader *geo.Reader
	Notifier  *notify.Notifier

	// OnTick is called once per tick, from the ticker's goroutine, with the
	// published snapshot and whatever notifications it triggered.
	OnTick func(ticker.Tick, []notify.Event)
	// OnFatal is called at most once if the capture loop stops because of
	// an unrecoverable capture-layer error (spec §7).
	OnFatal func(error)
	// OnUnsupportedLinkType is called at most once per capture if the
	// first frame committed to an unsupported link type: the loop keeps
	// counting frames globally but produces no flows (spec §4.2/§7).
	OnUnsupportedLinkType func()
}

// Engine is the concurrent collaborator described by spec §5: one
// capture/decode/classify/aggregate goroutine, the resolver pool (one
// goroutine per in-flight resolution, owned by resolver.Resolver), and the
// ticker goroutine.
type Engine struct {
	cfg Config

	aggregator *trafficstate.Aggregator
	resolver   *resolver.Resolver
	ticker     *ticker.Ticker

	captureID uint64 // atomic; spec §5's "current capture id"

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New builds an idle Engine. Call Start to begin capturing.
func New(cfg Config) *Engine {
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = time.Second
	}
	if cfg.Filters.IPVersions == nil {
		cfg.Filters = filter.Default()
	}
	e := &Engine{cfg: cfg, aggregator: trafficstate.NewAggregator()}
	e.ticker = ticker.New(cfg.TickPeriod, e.aggregator, e.handleTick)
	e.resolver = resolver.New(cfg.GeoReader, e.ticker.RecordHostResolution)
	return e
}

// Start opens the configured source and launches the capture loop and the
// ticker on their own goroutines. It returns once the source is open; the
// pipeline then runs until Stop, Reset, source exhaustion, or a fatal
// capture error.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return errors.New("engine: already running")
	}

	src, localAddrs, localPrefixes, err := e.openSource()
	if err != nil {
		return err
	}

	var savefile *capture.Savefile
	if e.cfg.SavefilePath != "" {
		savefile, err = capture.NewSavefile(e.cfg.SavefilePath, capture.SnapLenWithSavefile, src.LinkType())
		if err != nil {
			src.Close()
			return errors.Wrap(err, "engine: opening savefile")
		}
	}

	captureID := atomic.AddUint64(&e.captureID, 1)
	offline := e.cfg.Source.OfflineFile != ""

	stop := make(chan struct{})
	done := make(chan struct{})
	exhausted := make(chan struct{})
	e.stop, e.done = stop, done

	go e.captureLoop(captureID, src, savefile, localAddrs, localPrefixes, offline, stop, done, exhausted)
	if offline {
		go e.ticker.RunOffline(captureID, stop, exhausted)
	} else {
		go e.ticker.Run(captureID, stop)
	}

	e.running = true
	return nil
}

// Stop signals the capture and ticker goroutines to exit and waits for the
// capture loop to finish draining its current frame, per spec §5's
// cancellation discipline.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	close(e.stop)
	<-e.done
	e.running = false
}

// Reset stops the current capture, discards the accumulated aggregate and
// resolver state, and starts a fresh capture over the same source
// configuration. The capture id this bumps is what lets any resolver
// goroutines still finishing from the old capture discard their results
// instead of publishing them into the new one.
func (e *Engine) Reset() error {
	e.Stop()
	e.aggregator.Reset()
	e.resolver.Reset()
	return e.Start()
}

func (e *Engine) openSource() (capture.Source, classify.LocalAddrs, []netip.Prefix, error) {
	snapLen := capture.SnapLenNoSavefile
	if e.cfg.SavefilePath != "" {
		snapLen = capture.SnapLenWithSavefile
	}

	if e.cfg.Source.OfflineFile != "" {
		src, err := capture.OpenOffline(e.cfg.Source.OfflineFile, e.cfg.Source.BPFFilter)
		if err != nil {
			return nil, nil, nil, err
		}
		return src, classify.LocalAddrs{}, nil, nil
	}

	if e.cfg.Source.InterfaceName == "" {
		return nil, nil, nil, errors.New("engine: neither an interface nor an offline file is configured")
	}

	src, err := capture.OpenLive(e.cfg.Source.InterfaceName, snapLen, e.cfg.Source.BPFFilter)
	if err != nil {
		return nil, nil, nil, err
	}
	addrs, err := capture.InterfaceAddrs(e.cfg.Source.InterfaceName)
	if err != nil {
		src.Close()
		return nil, nil, nil, err
	}
	prefixes, err := capture.InterfacePrefixes(e.cfg.Source.InterfaceName)
	if err != nil {
		src.Close()
		return nil, nil, nil, err
	}
	return src, classify.NewLocalAddrs(addrs), prefixes, nil
}

// captureLoop is the single thread of spec §5 item 1: it blocks on the
// capture source, decodes, classifies, filters, and folds each frame into
// the aggregator, forwarding raw frames to the savefile and remote
// addresses to the resolver as it goes.
func (e *Engine) captureLoop(
	captureID uint64,
	src capture.Source,
	savefile *capture.Savefile,
	localAddrs classify.LocalAddrs,
	localPrefixes []netip.Prefix,
	offline bool,
	stop <-chan struct{},
	done chan<- struct{},
	exhausted chan<- struct{},
) {
	defer close(done)
	defer src.Close()
	if savefile != nil {
		defer savefile.Close()
	}
	if offline {
		defer close(exhausted)
	}

	dec := decode.NewDecoder()
	committed := false
	unsupportedNotified := false

	for {
		if atomic.LoadUint64(&e.captureID) != captureID {
			return
		}
		select {
		case <-stop:
			return
		default:
		}

		frame, err := src.ReadFrame()
		if err != nil {
			if err == capture.ErrTimeout {
				continue
			}
			if err == io.EOF {
				return
			}
			if e.cfg.OnFatal != nil {
				e.cfg.OnFatal(err)
			}
			return
		}

		if atomic.LoadUint64(&e.captureID) != captureID {
			return
		}

		if dropped, err := src.Stats(); err == nil {
			e.aggregator.SetDroppedPackets(dropped)
		}

		var headers decode.Headers
		switch {
		case !committed:
			headers, err = dec.CommitFirstFrame(frame.Data)
			committed = true
			if err != nil && !unsupportedNotified {
				unsupportedNotified = true
				if e.cfg.OnUnsupportedLinkType != nil {
					e.cfg.OnUnsupportedLinkType()
				}
			}
		case dec.LinkType() == decode.Unsupported:
			err = errUnsupported
		default:
			headers, err = dec.Decode(frame.Data)
		}

		if err != nil {
			// Malformed frame, or a link type this decoder never learned
			// to read: still counted globally, carries no flow, never
			// reaches the savefile.
			e.aggregator.RecordPacket(trafficstate.PacketUpdate{
				Timestamp: frame.Timestamp,
				Bytes:     uint64(len(frame.Data)),
			})
			continue
		}

		if savefile != nil {
			_ = savefile.Write(frame.Timestamp, frame.Data)
		}

		result := classify.Classify(headers, localAddrs, localPrefixes)
		passed := e.cfg.Filters.Matches(result.Fields)

		e.aggregator.RecordPacket(trafficstate.PacketUpdate{
			Timestamp:    frame.Timestamp,
			Bytes:        uint64(headers.FrameLen),
			FilterPassed: passed,
			Direction:    result.Direction,
			Key:          result.Key,
			Service:      result.Service,
			ICMPType:     headers.ICMPType,
		})

		if passed {
			e.resolveHost(result.Direction, headers)
		}
	}
}

var errUnsupported = errors.New("engine: link type is unsupported")

// resolveHost implements spec §4.6's remote-address handoff: the remote
// endpoint is the destination for outgoing traffic, the source for
// incoming traffic; other directions have no single remote party and are
// not submitted for resolution.
func (e *Engine) resolveHost(dir trafficstate.Direction, h decode.Headers) {
	var remote netip.Addr
	switch dir {
	case trafficstate.Outgoing:
		remote = h.Dest
	case trafficstate.Incoming:
		remote = h.Source
	default:
		return
	}

	data := trafficstate.NewDataInfoWithFirstPacket(uint64(h.FrameLen), dir)
	host, ok := e.resolver.Submit(remote, data)
	if !ok {
		return
	}
	e.aggregator.CommitHost(host, data, resolver.Locality(remote), e.cfg.Favorites[host])
}

// handleTick is the Ticker's onTick callback: it folds the tick's batch of
// freshly-resolved hosts into the delta's host map (the counterpart to
// Aggregator.CommitHost for hosts that resolved mid-tick, after the delta
// carrying their traffic had already swapped out), runs the notifier, and
// forwards both to the configured presentation collaborator.
func (e *Engine) handleTick(tick ticker.Tick) {
	for _, msg := range tick.HostBatch {
		rec := trafficstate.HostRecord{
			Data:     msg.Data,
			Locality: resolver.Locality(msg.Address),
			Favorite: e.cfg.Favorites[msg.Host],
		}
		if existing, ok := tick.Delta.Hosts[msg.Host]; ok {
			existing.Refresh(rec)
		} else {
			tick.Delta.Hosts[msg.Host] = &rec
		}
	}

	var events []notify.Event
	if e.cfg.Notifier != nil {
		events = e.cfg.Notifier.Consume(tick.Delta, e.cfg.Favorites, time.Now())
	}

	if e.cfg.OnTick != nil {
		e.cfg.OnTick(tick, events)
	}
}
