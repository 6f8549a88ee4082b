package dashboard

import (
	"testing"
	"time"

	"github.com/netsentryhq/netsentry/notify"
	"github.com/netsentryhq/netsentry/ticker"
	"github.com/netsentryhq/netsentry/trafficstate"
)

func TestApplyTickAccumulatesAcrossMultipleTicks(t *testing.T) {
	d := New()

	first := trafficstate.New()
	first.AllPackets = 10
	first.AllBytes = 1000
	first.TotDataInfo.AddPacket(500, trafficstate.Outgoing)

	snap := d.ApplyTick(ticker.Tick{CaptureID: 1, Delta: first})
	if snap.AllPackets != 10 {
		t.Fatalf("AllPackets after first tick = %d, want 10", snap.AllPackets)
	}

	second := trafficstate.New()
	second.AllPackets = 5
	second.AllBytes = 500
	snap = d.ApplyTick(ticker.Tick{CaptureID: 1, Delta: second})

	if snap.AllPackets != 15 {
		t.Errorf("AllPackets after second tick = %d, want 15", snap.AllPackets)
	}
	if snap.AllBytes != 1500 {
		t.Errorf("AllBytes after second tick = %d, want 1500", snap.AllBytes)
	}
}

func TestDescribeEventCoversAllKinds(t *testing.T) {
	now := time.Now()
	cases := []struct {
		event notify.Event
		want  string
	}{
		{notify.Event{Kind: notify.KindPackets, At: now, Packets: 900}, "packets threshold exceeded (900 packets)"},
		{notify.Event{Kind: notify.KindBytes, At: now, Bytes: 2_000_000}, "bytes threshold exceeded (2000000 bytes)"},
	}
	for _, c := range cases {
		if got := describeEvent(c.event); got != c.want {
			t.Errorf("describeEvent(%+v) = %q, want %q", c.event, got, c.want)
		}
	}
}

func TestDescribeEventFavoriteListsHostNames(t *testing.T) {
	e := notify.Event{
		Kind:      notify.KindFavorite,
		At:        time.Now(),
		Favorites: []trafficstate.Host{{Domain: "example.com", ASN: trafficstate.ASN{Name: "EXAMPLE-AS"}}},
	}
	got := describeEvent(e)
	if got == "" {
		t.Fatal("describeEvent for a favorite event returned empty string")
	}
}
