package core

import (
	"sync"
	"time"
)

// IdleReaper clears the displayed presence after a fixed idle period with
// no updates. Reset is called on every accepted or skipped report; only the
// deadline from the most recent Reset may ever fire.
type IdleReaper struct {
	timeout time.Duration
	fire    func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewIdleReaper(timeout time.Duration, fire func()) *IdleReaper {
	return &IdleReaper{
		timeout: timeout,
		fire:    fire,
	}
}

// Reset cancels any pending deadline and schedules a new one. It never
// blocks; the callback runs on the timer's own goroutine.
func (r *IdleReaper) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}

	r.gen++
	gen := r.gen

	r.timer = time.AfterFunc(r.timeout, func() {
		// A Reset or Stop racing with an already-expired timer bumps the
		// generation, so a stale deadline falls through here.
		r.mu.Lock()
		stale := gen != r.gen
		r.mu.Unlock()
		if stale {
			return
		}
		r.fire()
	})
}

// Stop cancels any pending deadline.
func (r *IdleReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
