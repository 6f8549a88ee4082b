package filter

import "testing"

func u16p(v uint16) *uint16 { return &v }

func TestDefaultPortCollectionContainsEverything(t *testing.T) {
	c := DefaultPortCollection()
	for _, p := range []uint16{0, 1, 2, 80, 8080, 55333, 65535} {
		if !c.Contains(u16p(p)) {
			t.Errorf("default collection should contain %d", p)
		}
	}
	if !c.Contains(nil) {
		t.Errorf("default collection should contain nil (no-port protocols)")
	}
}

func TestNewPortCollections(t *testing.T) {
	cases := []struct {
		in     string
		ports  []uint16
		ranges []portRange
	}{
		{"0", []uint16{0}, nil},
		{" 0 ", []uint16{0}, nil},
		{"1,2,3,4,999", []uint16{1, 2, 3, 4, 999}, nil},
		{"1, 2, 3, 4, 900-999", []uint16{1, 2, 3, 4}, []portRange{{900, 999}}},
		{"1 - 999", nil, []portRange{{1, 999}}},
		{"   1,2,10-20,3,4,  999-1200    ", []uint16{1, 2, 3, 4}, []portRange{{10, 20}, {999, 1200}}},
	}
	for _, c := range cases {
		got, err := NewPortCollection(c.in)
		if err != nil {
			t.Errorf("NewPortCollection(%q): unexpected error %v", c.in, err)
			continue
		}
		if len(got.ports) != len(c.ports) {
			t.Errorf("NewPortCollection(%q): ports = %v, want %v", c.in, got.ports, c.ports)
			continue
		}
		for i := range got.ports {
			if got.ports[i] != c.ports[i] {
				t.Errorf("NewPortCollection(%q): ports = %v, want %v", c.in, got.ports, c.ports)
				break
			}
		}
		if len(got.ranges) != len(c.ranges) {
			t.Errorf("NewPortCollection(%q): ranges = %v, want %v", c.in, got.ranges, c.ranges)
			continue
		}
		for i := range got.ranges {
			if got.ranges[i] != c.ranges[i] {
				t.Errorf("NewPortCollection(%q): ranges = %v, want %v", c.in, got.ranges, c.ranges)
				break
			}
		}
	}
}

func TestNewPortCollectionsInvalid(t *testing.T) {
	invalid := []string{
		"1,2,10-20,3,4,-1200",
		"1,2,10-20,3,4,999:1200",
		"1,2,10-20,3,4,999-1200,",
		"999-1",
		"1:999",
	}
	for _, in := range invalid {
		if _, err := NewPortCollection(in); err == nil {
			t.Errorf("NewPortCollection(%q): expected error, got none", in)
		}
	}
}

func TestPortCollectionContains(t *testing.T) {
	c, err := NewPortCollection("1,2,25-30,55,101-117")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []uint16{1, 2, 25, 27, 30, 55, 101, 109, 117} {
		if !c.Contains(u16p(p)) {
			t.Errorf("expected %d to match", p)
		}
	}
	for _, p := range []uint16{4, 24, 31, 100, 118, 8080} {
		if c.Contains(u16p(p)) {
			t.Errorf("expected %d to not match", p)
		}
	}
}

func TestEmptyAndFullRangeProduceSameSet(t *testing.T) {
	empty, err := NewPortCollection("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	full, err := NewPortCollection("0-65535")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []uint16{0, 1, 32768, 65535} {
		if empty.Contains(u16p(p)) != full.Contains(u16p(p)) {
			t.Errorf("port %d: empty and full-range collections disagree", p)
		}
	}
}
