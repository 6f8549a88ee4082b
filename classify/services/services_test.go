package services

import "testing"

func TestLookupKnownServices(t *testing.T) {
	cases := []struct {
		port     uint16
		protocol Protocol
		want     string
	}{
		{80, TCP, "http"},
		{5353, UDP, "mdns"},
		{443, TCP, "https"},
		{22, TCP, "ssh"},
	}
	for _, c := range cases {
		got, ok := Lookup(c.port, c.protocol)
		if !ok {
			t.Errorf("Lookup(%d, %v): expected entry", c.port, c.protocol)
			continue
		}
		if got != c.want {
			t.Errorf("Lookup(%d, %v) = %q, want %q", c.port, c.protocol, got, c.want)
		}
	}
}

func TestLookupMiss(t *testing.T) {
	if _, ok := Lookup(65000, TCP); ok {
		t.Errorf("expected no entry for unassigned port")
	}
}

func TestRejectNameRules(t *testing.T) {
	rejected := []string{"", "unknown", "-", "#comment", "has space", "has?mark", "non-ascii-é"}
	for _, n := range rejected {
		if !rejectName(n) {
			t.Errorf("rejectName(%q) = false, want true", n)
		}
	}
	if rejectName("http") {
		t.Errorf("rejectName(\"http\") = true, want false")
	}
}
