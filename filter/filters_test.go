package filter

import (
	"testing"
)

func TestFiltersMatchesEitherEndpoint(t *testing.T) {
	f, err := New(AllIPVersions, AllTransports, "", "80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := PacketFields{
		IP:       IPv4,
		Protocol: TCP,
		Source:   mustAddr(t, "10.0.0.1"),
		Dest:     mustAddr(t, "10.0.0.2"),
		SrcPort:  u16p(54321),
		DstPort:  u16p(80),
	}
	if !f.Matches(fields) {
		t.Errorf("expected match when destination port qualifies")
	}

	fields.DstPort, fields.SrcPort = fields.SrcPort, fields.DstPort
	fields.SrcPort, fields.DstPort = u16p(80), u16p(54321)
	if !f.Matches(fields) {
		t.Errorf("expected match when source port qualifies")
	}
}

func TestFiltersRejectsByPort(t *testing.T) {
	f, err := New(AllIPVersions, AllTransports, "", "80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := PacketFields{
		IP:       IPv4,
		Protocol: UDP,
		Source:   mustAddr(t, "10.0.0.1"),
		Dest:     mustAddr(t, "10.0.0.2"),
		SrcPort:  u16p(5000),
		DstPort:  u16p(53),
	}
	if f.Matches(fields) {
		t.Errorf("expected no match when neither endpoint is port 80")
	}
}

func TestFiltersConstructionRejectsInvalidCollections(t *testing.T) {
	if _, err := New(AllIPVersions, AllTransports, "not-an-address", ""); err == nil {
		t.Errorf("expected error for invalid address text")
	}
	if _, err := New(AllIPVersions, AllTransports, "", "999-1"); err == nil {
		t.Errorf("expected error for invalid port text")
	}
	if _, err := New(map[IPVersion]bool{}, AllTransports, "", ""); err == nil {
		t.Errorf("expected error for empty IP version set")
	}
}

func TestFiltersNoneActive(t *testing.T) {
	f := Default()
	if !f.NoneActive() {
		t.Errorf("default filters should have no active predicates")
	}
	narrowed, err := New(map[IPVersion]bool{IPv4: true}, AllTransports, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if narrowed.NoneActive() {
		t.Errorf("narrowed IP version set should count as active")
	}
	if !narrowed.IPVersionActive() {
		t.Errorf("expected IPVersionActive")
	}
}
