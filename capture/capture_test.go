package capture

import (
	"errors"
	"testing"
	"time"
)

func TestFakeClockIsDeterministic(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &fakeClock{currTime: ts}
	if !c.Now().Equal(ts) {
		t.Errorf("fakeClock.Now() = %v, want %v", c.Now(), ts)
	}
}

func TestErrTimeoutIsDistinguishable(t *testing.T) {
	if !errors.Is(ErrTimeout, ErrTimeout) {
		t.Errorf("ErrTimeout should compare equal to itself")
	}
}
