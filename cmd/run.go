package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"

	"github.com/netsentryhq/netsentry/capture"
	"github.com/netsentryhq/netsentry/cfg"
	"github.com/netsentryhq/netsentry/dashboard"
	"github.com/netsentryhq/netsentry/engine"
	"github.com/netsentryhq/netsentry/geo"
	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/printer"
	"github.com/netsentryhq/netsentry/stream"
	"github.com/netsentryhq/netsentry/ticker"
)

// uiKind selects which presentation collaborator consumes the engine's
// ticks; the core itself is indifferent to which one is attached
// (spec §1: the GUI is an external collaborator).
type uiKind string

const (
	uiDashboard uiKind = "dashboard"
	uiStream    uiKind = "stream"
	uiNone      uiKind = "none"
)

// runEngine builds an Engine from cfg's current settings plus the given
// Source, attaches the requested presentation collaborator, and blocks
// until the capture finishes (offline) or the process receives
// SIGINT/SIGTERM, mirroring apidump.go's signal-handling shape.
func runEngine(source engine.Source, ui uiKind, streamAddr string) error {
	filters, err := cfg.Filters()
	if err != nil {
		return errors.Wrap(err, "invalid filter configuration")
	}

	countryPath, asnPath := cfg.MMDBPaths()
	geoReader, err := geo.Open(countryPath, asnPath)
	if err != nil {
		return errors.Wrap(err, "opening MMDB databases")
	}
	defer geoReader.Close()

	notifier := notify.New(cfg.NotifyConfig())

	var dash *dashboard.Dashboard
	var streamServer *stream.Server
	offlineFinished := make(chan struct{}, 1)

	econf := engine.Config{
		Source:       source,
		SavefilePath: cfg.SavefilePathSetting(),
		TickPeriod:   cfg.TickPeriodSetting(),
		Filters:      filters,
		Favorites:    cfg.FavoriteHosts(),
		GeoReader:    geoReader,
		Notifier:     notifier,
		OnFatal: func(err error) {
			printer.Stderr.Errorf("capture stopped: %v\n", err)
		},
		OnUnsupportedLinkType: func() {
			printer.Stderr.Warningln("capture link type is unsupported; counting packets only")
		},
	}

	notifyOfflineFinished := func(tick ticker.Tick) {
		if tick.OfflineFinished {
			select {
			case offlineFinished <- struct{}{}:
			default:
			}
		}
	}

	switch ui {
	case uiDashboard:
		dash = dashboard.New()
		econf.OnTick = func(tick ticker.Tick, events []notify.Event) {
			dash.HandleTick(tick, events)
			notifyOfflineFinished(tick)
		}
	case uiStream:
		streamServer = stream.New(streamAddr)
		econf.OnTick = func(tick ticker.Tick, events []notify.Event) {
			streamServer.HandleTick(tick, events)
			notifyOfflineFinished(tick)
		}
	case uiNone:
		econf.OnTick = func(tick ticker.Tick, _ []notify.Event) {
			notifyOfflineFinished(tick)
		}
	}

	e := engine.New(econf)
	if err := e.Start(); err != nil {
		return errors.Wrap(err, "starting capture")
	}
	defer e.Stop()

	if ui == uiStream {
		printer.Stderr.Infof("streaming traffic on http://%s/snapshot and ws://%s/ws\n", streamAddr, streamAddr)
		go func() {
			if err := streamServer.ListenAndServe(); err != nil {
				printer.Stderr.Errorf("stream server: %v\n", err)
			}
		}()
	}

	if ui == uiDashboard {
		go func() {
			if source.OfflineFile != "" {
				<-offlineFinished
				dash.Stop()
			}
		}()
		return dash.Run()
	}

	if source.OfflineFile != "" {
		<-offlineFinished
		printer.Stderr.Infoln("replay finished")
		return nil
	}

	printer.Stderr.Infoln("Send SIGINT (Ctrl-C) to stop...")
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	printer.Stderr.Infoln("stopping capture...")
	return nil
}

// pickInterface prompts the user to choose a capture interface via an
// interactive survey select, grounded on the teacher's
// cmd/internal/login/login.go survey usage, generalized from a text
// prompt to a device list select.
func pickInterface() (string, error) {
	devices, err := capture.Devices()
	if err != nil {
		return "", errors.Wrap(err, "listing capture devices")
	}
	if len(devices) == 0 {
		return "", errors.New("no capture devices found")
	}

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}

	var chosen string
	prompt := &survey.Select{
		Message: "Select a capture interface:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return "", errors.Wrap(err, "reading interface selection")
	}
	return chosen, nil
}
