package bogon

import (
	"net/netip"
	"testing"
)

func addr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q): %v", s, err)
	}
	return a
}

func TestDescribeNoMatch(t *testing.T) {
	for _, s := range []string{"8.8.8.8", "2001:4860:4860::8888"} {
		if _, ok := Describe(addr(t, s)); ok {
			t.Errorf("%s unexpectedly classified as bogon", s)
		}
	}
}

func TestDescribeKnownRanges(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"0.1.2.3", `"this" network`},
		{"10.1.2.3", "private-use"},
		{"172.22.2.3", "private-use"},
		{"192.168.255.3", "private-use"},
		{"100.99.2.1", "carrier-grade NAT"},
		{"127.99.2.1", "loopback"},
		{"169.254.0.0", "link local"},
		{"192.0.0.255", "IETF protocol assignments"},
		{"192.0.2.128", "TEST-NET-1"},
		{"198.18.2.128", "network interconnect device benchmark testing"},
		{"198.51.100.128", "TEST-NET-2"},
		{"203.0.113.128", "TEST-NET-3"},
		{"224.12.13.255", "multicast"},
		{"240.0.0.0", "future use"},
		{"::", "node-scope unicast unspecified"},
		{"::1", "node-scope unicast loopback"},
		{"100::beef", "remotely triggered black hole"},
		{"2001:10::feed", "ORCHID"},
		{"2001:db8::fe90", "documentation prefix"},
		{"3fff::", "documentation prefix"},
		{"fdff::", "ULA"},
		{"feaf::", "link-local unicast"},
		{"feea::1", "site-local unicast"},
		{"ff02::1", "multicast v6"},
	}
	for _, c := range cases {
		got, ok := Describe(addr(t, c.addr))
		if !ok {
			t.Errorf("%s: expected bogon match %q, got none", c.addr, c.want)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %q, want %q", c.addr, got, c.want)
		}
	}
}

func TestIPv4MappedSameLocalityAsIPv4(t *testing.T) {
	mapped := addr(t, "::ffff:8.8.8.8")
	plain := addr(t, "8.8.8.8")
	if Classify(mapped) != Classify(plain) {
		t.Errorf("IPv4-mapped address classified differently than its IPv4 form")
	}

	mappedPrivate := addr(t, "::ffff:10.1.2.3")
	plainPrivate := addr(t, "10.1.2.3")
	if Classify(mappedPrivate) != Classify(plainPrivate) {
		t.Errorf("IPv4-mapped private address classified differently than its IPv4 form")
	}
}

func TestClassifyPublic(t *testing.T) {
	if Classify(addr(t, "8.8.8.8")) != Public {
		t.Errorf("expected public")
	}
	if Classify(addr(t, "10.0.0.1")) != Bogon {
		t.Errorf("expected bogon")
	}
}
