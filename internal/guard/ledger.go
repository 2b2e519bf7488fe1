// Package guard tracks authentication failures per client IP for
// brute-force protection.
package guard

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FailureLedger records auth failures per client IP and blocks an IP once
// it accumulates threshold failures inside the window. Memory is bounded
// two ways: per-IP lists are pruned to the window, and the set of tracked
// IPs is capped with LRU eviction.
type FailureLedger struct {
	threshold int
	window    time.Duration

	mutex    sync.Mutex
	failures *lru.Cache[string, []time.Time]
}

func NewFailureLedger(threshold int, window time.Duration, maxTrackedIPs int) *FailureLedger {
	cache, _ := lru.New[string, []time.Time](maxTrackedIPs)

	return &FailureLedger{
		threshold: threshold,
		window:    window,
		failures:  cache,
	}
}

// Record notes one auth failure for the given IP.
func (l *FailureLedger) Record(clientIP string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	timestamps, _ := l.failures.Get(clientIP)
	timestamps = l.prune(timestamps, time.Now())
	timestamps = append(timestamps, time.Now())
	l.failures.Add(clientIP, timestamps)
}

// Blocked reports whether the IP has reached the failure threshold inside
// the window. Expired failures are pruned as a side effect.
func (l *FailureLedger) Blocked(clientIP string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	timestamps, ok := l.failures.Get(clientIP)
	if !ok {
		return false
	}

	pruned := l.prune(timestamps, time.Now())
	if len(pruned) != len(timestamps) {
		if len(pruned) == 0 {
			l.failures.Remove(clientIP)
		} else {
			l.failures.Add(clientIP, pruned)
		}
	}

	return len(pruned) >= l.threshold
}

// TrackedIPs returns the number of IPs currently tracked.
func (l *FailureLedger) TrackedIPs() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.failures.Len()
}

func (l *FailureLedger) prune(timestamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)

	var kept []time.Time
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
