// Package ratelimit provides a sliding-window request limiter keyed by
// an arbitrary string, typically a client IP.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults match the public endpoint's admission policy.
const (
	DefaultWindow = 15 * time.Minute
	DefaultLimit  = 100
)

// Limiter tracks request timestamps per key over a sliding window.
// A request is admitted only if fewer than limit requests from the
// same key fall within the window ending now.
type Limiter struct {
	window time.Duration
	limit  int

	mu      sync.Mutex
	history map[string][]time.Time

	now func() time.Time
}

// New returns a limiter admitting at most limit requests per key in
// any window-sized interval. Non-positive arguments fall back to the
// defaults.
func New(window time.Duration, limit int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Limiter{
		window:  window,
		limit:   limit,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an attempt for key and reports whether it is admitted.
// Rejected attempts are not recorded, so a client that keeps retrying
// is readmitted as soon as its oldest in-window request ages out.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.history[key][:0]
	for _, ts := range l.history[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.history[key] = kept
		return false
	}

	l.history[key] = append(kept, now)
	return true
}

// Prune drops keys whose every recorded request has aged out of the
// window. Callers may run it periodically to bound memory on servers
// that see many distinct clients.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, stamps := range l.history {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.history, key)
		}
	}
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}
