package core

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIdleReaper_FiresAfterTimeout(t *testing.T) {
	fired := make(chan struct{}, 1)
	reaper := NewIdleReaper(20*time.Millisecond, func() {
		fired <- struct{}{}
	})
	defer reaper.Stop()

	reaper.Reset()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Reaper did not fire after the timeout")
	}
}

func TestIdleReaper_ResetPostponesDeadline(t *testing.T) {
	var fires atomic.Int32
	reaper := NewIdleReaper(50*time.Millisecond, func() {
		fires.Add(1)
	})
	defer reaper.Stop()

	// Keep resetting faster than the timeout; the deadline must never fire.
	for i := 0; i < 5; i++ {
		reaper.Reset()
		time.Sleep(20 * time.Millisecond)
	}

	if n := fires.Load(); n != 0 {
		t.Errorf("Reaper fired %d times while being reset", n)
	}

	// Let the final deadline expire.
	time.Sleep(100 * time.Millisecond)
	if n := fires.Load(); n != 1 {
		t.Errorf("Expected exactly one fire after resets stopped, got %d", n)
	}
}

func TestIdleReaper_StopCancels(t *testing.T) {
	var fires atomic.Int32
	reaper := NewIdleReaper(20*time.Millisecond, func() {
		fires.Add(1)
	})

	reaper.Reset()
	reaper.Stop()

	time.Sleep(60 * time.Millisecond)
	if n := fires.Load(); n != 0 {
		t.Errorf("Stopped reaper fired %d times", n)
	}
}

func TestIdleReaper_StopWithoutReset(t *testing.T) {
	reaper := NewIdleReaper(time.Minute, func() {})
	reaper.Stop() // must not panic with no timer scheduled
}
