package filter

import (
	"net/netip"
	"testing"
)

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q): %v", s, err)
	}
	return a
}

func TestIPCollectionRangeAndLiteral(t *testing.T) {
	c, err := NewIPCollection("10.0.0.0-10.0.0.255, 192.168.1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range []string{"10.0.0.0", "10.0.0.128", "10.0.0.255", "192.168.1.1"} {
		if !c.Contains(mustAddr(t, a)) {
			t.Errorf("expected %s to match", a)
		}
	}
	for _, a := range []string{"10.0.1.0", "192.168.1.2"} {
		if c.Contains(mustAddr(t, a)) {
			t.Errorf("expected %s to not match", a)
		}
	}
}

func TestIPCollectionIPv6Range(t *testing.T) {
	c, err := NewIPCollection("2001:db8::-2001:db8::ffff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Contains(mustAddr(t, "2001:db8::1")) {
		t.Errorf("expected match within range")
	}
	if c.Contains(mustAddr(t, "2001:db8::1:0")) {
		t.Errorf("expected no match outside range")
	}
}

func TestIPCollectionInvalid(t *testing.T) {
	invalid := []string{"10.0.0.0-", "not-an-address", "10.0.0.300"}
	for _, in := range invalid {
		if _, err := NewIPCollection(in); err == nil {
			t.Errorf("NewIPCollection(%q): expected error", in)
		}
	}
}

func TestIPCollectionEmptyMatchesAll(t *testing.T) {
	c, err := NewIPCollection("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Contains(mustAddr(t, "8.8.8.8")) || !c.Contains(mustAddr(t, "::1")) {
		t.Errorf("expected empty collection to match everything")
	}
}
