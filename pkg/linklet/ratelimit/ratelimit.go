// Package ratelimit provides a process-local fixed-window request counter.
//
// Bursts of up to twice the limit can land around a window boundary; that
// is the accepted cost of the fixed-window scheme. Counters live in memory
// only and do not survive a restart. For multi-instance deployments the
// same Allow contract can be backed by a shared counter store without
// touching callers.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts hits per key inside fixed windows.
type Limiter struct {
	mu        sync.Mutex
	entries   map[string]*window
	now       func() time.Time
	sweepOdds int // 1-in-N chance per Allow call to sweep expired windows
}

// New returns an empty limiter.
func New() *Limiter {
	return &Limiter{
		entries:   make(map[string]*window),
		now:       time.Now,
		sweepOdds: 100,
	}
}

// Allow records one hit against key and reports whether it fits inside the
// current window of max hits per windowDur. A denied call does not
// increment the counter.
func (l *Limiter) Allow(key string, max int, windowDur time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.sweepOdds > 0 && rand.Intn(l.sweepOdds) == 0 {
		l.sweepLocked(now)
	}

	w, ok := l.entries[key]
	if !ok || now.After(w.resetAt) {
		l.entries[key] = &window{count: 1, resetAt: now.Add(windowDur)}
		return true
	}
	if w.count < max {
		w.count++
		return true
	}
	return false
}

// sweepLocked drops windows that have already expired. The limiter's map
// is the only unbounded state in the process; the sweep bounds it without
// affecting which calls are allowed.
func (l *Limiter) sweepLocked(now time.Time) {
	for k, w := range l.entries {
		if now.After(w.resetAt) {
			delete(l.entries, k)
		}
	}
}

// Len reports how many keys are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
