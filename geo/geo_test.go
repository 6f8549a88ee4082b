package geo

import (
	"net/netip"
	"testing"

	"github.com/netsentryhq/netsentry/trafficstate"
)

func TestReaderWithNoDatabasesReturnsUnknown(t *testing.T) {
	r, err := Open("", "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	addr := netip.MustParseAddr("8.8.8.8")
	if got := r.Country(addr); got != trafficstate.UnknownCountry {
		t.Errorf("Country = %q, want %q", got, trafficstate.UnknownCountry)
	}
	if got := r.ASN(addr); got != (trafficstate.ASN{}) {
		t.Errorf("ASN = %+v, want zero value", got)
	}
}

func TestOpenRejectsUnreadablePath(t *testing.T) {
	if _, err := Open("/nonexistent/country.mmdb", ""); err == nil {
		t.Errorf("expected error opening a nonexistent MMDB file")
	}
}
