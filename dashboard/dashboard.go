// Package dashboard is a terminal presentation collaborator for the core
// pipeline: it owns the cumulative view the teacher's `apidiff` package
// would call a "root page" and merges each published Tick into it, per
// spec §6's Tick contract. It is a deliberately thin stand-in for
// sniffnet's out-of-scope `gui/` tree — just enough to give Tick a real
// consumer that a person can watch.
package dashboard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/ticker"
	"github.com/netsentryhq/netsentry/trafficstate"
)

const rootPageID = "root"

// maxRows bounds how many flow/host/service rows are rendered, so a large
// capture doesn't turn table redraws into the bottleneck.
const maxRows = 200

// maxNotifications bounds the on-screen notification feed independent of
// notify.Notifier's own 30-slot ring buffer.
const maxNotifications = 100

// Dashboard renders the live cumulative traffic view and the notification
// feed as tview tables/text, one tick at a time.
type Dashboard struct {
	app   *tview.Application
	pages *tview.Pages

	summary  *tview.TextView
	flows    *tview.Table
	hosts    *tview.Table
	services *tview.Table
	feed     *tview.TextView

	mu         sync.Mutex
	cumulative *trafficstate.InfoTraffic
	notifCount int
}

// New builds an idle Dashboard. Call Run to start the terminal UI; it
// blocks until the user quits or Stop is called.
func New() *Dashboard {
	d := &Dashboard{
		app:        tview.NewApplication(),
		cumulative: trafficstate.New(),
	}
	d.build()
	return d
}

func (d *Dashboard) build() {
	d.summary = tview.NewTextView().SetDynamicColors(true)
	d.summary.SetBorder(true).SetTitle(" totals ")

	d.flows = newTable("flow", "transport", "direction", "service", "packets", "bytes")
	d.flows.SetBorder(true).SetTitle(" flows ")

	d.hosts = newTable("host", "country", "asn", "packets", "bytes")
	d.hosts.SetBorder(true).SetTitle(" hosts ")

	d.services = newTable("service", "packets", "bytes")
	d.services.SetBorder(true).SetTitle(" services ")

	d.feed = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	d.feed.SetBorder(true).SetTitle(" notifications ")

	top := tview.NewFlex().
		AddItem(d.flows, 0, 2, false).
		AddItem(d.hosts, 0, 1, false)
	middle := tview.NewFlex().
		AddItem(d.services, 0, 1, false).
		AddItem(d.feed, 0, 1, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.summary, 3, 0, false).
		AddItem(top, 0, 3, false).
		AddItem(middle, 0, 2, false)

	d.pages = tview.NewPages().AddPage(rootPageID, root, true, true)

	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if r := event.Rune(); r == 'q' || r == 'Q' {
			d.app.Stop()
		}
		return event
	})
}

func newTable(headers ...string) *tview.Table {
	t := tview.NewTable().SetFixed(1, 0)
	for col, h := range headers {
		t.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	return t
}

// Run starts the terminal event loop and blocks until the user quits
// (pressing 'q') or Stop is called from another goroutine.
func (d *Dashboard) Run() error {
	return d.app.SetRoot(d.pages, true).SetFocus(d.pages).Run()
}

// Stop ends the terminal event loop.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

// HandleTick is the Engine's OnTick callback: it merges the tick's delta
// into the cumulative view and redraws. tview requires UI mutation to
// happen on its own goroutine, so the redraw is queued rather than done
// inline — this method is safe to call from the ticker's goroutine.
func (d *Dashboard) HandleTick(tick ticker.Tick, events []notify.Event) {
	snapshot := d.ApplyTick(tick)
	d.app.QueueUpdateDraw(func() {
		d.redraw(snapshot, events)
	})
}

// ApplyTick merges tick's delta into the cumulative view under lock and
// returns the updated cumulative snapshot, without touching the terminal.
// Split out from HandleTick so the merge logic is testable without a
// running tview event loop.
func (d *Dashboard) ApplyTick(tick ticker.Tick) *trafficstate.InfoTraffic {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cumulative.Refresh(tick.Delta)
	return d.cumulative
}

func (d *Dashboard) redraw(cumulative *trafficstate.InfoTraffic, events []notify.Event) {
	incoming, outgoing, filtered, dropped := cumulative.ThumbnailData()
	d.summary.SetText(fmt.Sprintf(
		"packets: %d  bytes: %d  incoming: %d  outgoing: %d  filtered: %d  dropped: %d",
		cumulative.AllPackets, cumulative.AllBytes, incoming, outgoing, filtered, dropped,
	))

	d.redrawFlows(cumulative)
	d.redrawHosts(cumulative)
	d.redrawServices(cumulative)
	d.appendNotifications(events)
}

func (d *Dashboard) redrawFlows(cumulative *trafficstate.InfoTraffic) {
	clearRows(d.flows)
	type row struct {
		key trafficstate.FlowKey
		rec *trafficstate.FlowRecord
	}
	rows := make([]row, 0, len(cumulative.Flows))
	for k, r := range cumulative.Flows {
		rows = append(rows, row{k, r})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].rec.Data.TotBytes() > rows[j].rec.Data.TotBytes()
	})
	for i, r := range rows {
		if i >= maxRows {
			break
		}
		line := i + 1
		d.flows.SetCell(line, 0, tview.NewTableCell(r.key.String()))
		d.flows.SetCell(line, 1, tview.NewTableCell(r.key.Transport.String()))
		d.flows.SetCell(line, 2, tview.NewTableCell(r.rec.Direction.String()))
		d.flows.SetCell(line, 3, tview.NewTableCell(r.rec.Service.String()))
		d.flows.SetCell(line, 4, tview.NewTableCell(fmt.Sprintf("%d", r.rec.Data.TotPackets())))
		d.flows.SetCell(line, 5, tview.NewTableCell(fmt.Sprintf("%d", r.rec.Data.TotBytes())))
	}
}

func (d *Dashboard) redrawHosts(cumulative *trafficstate.InfoTraffic) {
	clearRows(d.hosts)
	type row struct {
		host trafficstate.Host
		rec  *trafficstate.HostRecord
	}
	rows := make([]row, 0, len(cumulative.Hosts))
	for h, r := range cumulative.Hosts {
		rows = append(rows, row{h, r})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].rec.Data.TotBytes() > rows[j].rec.Data.TotBytes()
	})
	for i, r := range rows {
		if i >= maxRows {
			break
		}
		line := i + 1
		name := r.host.EntryString()
		if r.rec.Favorite {
			name = "★ " + name
		}
		d.hosts.SetCell(line, 0, tview.NewTableCell(name))
		d.hosts.SetCell(line, 1, tview.NewTableCell(r.host.Country))
		d.hosts.SetCell(line, 2, tview.NewTableCell(r.host.ASN.Name))
		d.hosts.SetCell(line, 3, tview.NewTableCell(fmt.Sprintf("%d", r.rec.Data.TotPackets())))
		d.hosts.SetCell(line, 4, tview.NewTableCell(fmt.Sprintf("%d", r.rec.Data.TotBytes())))
	}
}

func (d *Dashboard) redrawServices(cumulative *trafficstate.InfoTraffic) {
	clearRows(d.services)
	type row struct {
		svc  trafficstate.Service
		data *trafficstate.DataInfo
	}
	rows := make([]row, 0, len(cumulative.Services))
	for s, data := range cumulative.Services {
		rows = append(rows, row{s, data})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].data.TotBytes() > rows[j].data.TotBytes()
	})
	for i, r := range rows {
		if i >= maxRows {
			break
		}
		line := i + 1
		d.services.SetCell(line, 0, tview.NewTableCell(r.svc.String()))
		d.services.SetCell(line, 1, tview.NewTableCell(fmt.Sprintf("%d", r.data.TotPackets())))
		d.services.SetCell(line, 2, tview.NewTableCell(fmt.Sprintf("%d", r.data.TotBytes())))
	}
}

func (d *Dashboard) appendNotifications(events []notify.Event) {
	for _, e := range events {
		d.notifCount++
		if d.notifCount > maxNotifications {
			d.feed.Clear()
			d.notifCount = 1
		}
		fmt.Fprintf(d.feed, "[yellow]%s[-] %s\n", e.At.Format("15:04:05"), describeEvent(e))
	}
}

func describeEvent(e notify.Event) string {
	switch e.Kind {
	case notify.KindPackets:
		return fmt.Sprintf("packets threshold exceeded (%d packets)", e.Packets)
	case notify.KindBytes:
		return fmt.Sprintf("bytes threshold exceeded (%d bytes)", e.Bytes)
	case notify.KindFavorite:
		names := make([]string, 0, len(e.Favorites))
		for _, h := range e.Favorites {
			names = append(names, h.EntryString())
		}
		return "favorite host transmitted: " + fmt.Sprint(names)
	default:
		return "notification"
	}
}

// clearRows removes every row but the header row (row 0).
func clearRows(t *tview.Table) {
	for t.GetRowCount() > 1 {
		t.RemoveRow(t.GetRowCount() - 1)
	}
}
