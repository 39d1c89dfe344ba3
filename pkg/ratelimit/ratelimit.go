// Package ratelimit implements per-client run admission from spec.md §4.7:
// a sliding-window quota over a configurable window (default 24h, 50
// investigations), a whitelist bypass, and the request-to-run admission
// path's quota check. Pairing with the cached-path-first check lives in
// the orchestrator wiring, which asks the GraphStore before allocating a
// live Run.
package ratelimit

import (
	"sync"
	"time"
)

// window tracks one client's request timestamps within the quota period.
// Unlike a fixed-bucket counter, timestamps are kept so the window slides
// continuously rather than resetting at a fixed boundary.
type window struct {
	timestamps []time.Time
}

// Limiter enforces a sliding-window quota per client key (spec.md §4.7),
// adapted from the teacher's fixed one-minute-bucket RateLimiter into a
// true sliding window since spec.md's 24h quota is too coarse for a
// bucket-reset approach to feel fair to clients near the boundary.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	whitelist map[string]struct{}
	max       int
	period    time.Duration
}

// New builds a Limiter with the given quota and whitelist.
func New(max int, period time.Duration, whitelist []string) *Limiter {
	set := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		set[ip] = struct{}{}
	}
	return &Limiter{
		windows:   make(map[string]*window),
		whitelist: set,
		max:       max,
		period:    period,
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allow records a request for key and reports whether it's within quota.
// Whitelisted keys are always allowed and report the full quota remaining.
func (l *Limiter) Allow(key string) Decision {
	if _, ok := l.whitelist[key]; ok {
		return Decision{Allowed: true, Remaining: l.max, ResetAt: time.Now().Add(l.period)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	w.timestamps = dropExpired(w.timestamps, now, l.period)

	if len(w.timestamps) >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.timestamps[0].Add(l.period)}
	}

	w.timestamps = append(w.timestamps, now)
	remaining := l.max - len(w.timestamps)
	resetAt := now.Add(l.period)
	if len(w.timestamps) > 0 {
		resetAt = w.timestamps[0].Add(l.period)
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}
}

func dropExpired(timestamps []time.Time, now time.Time, period time.Duration) []time.Time {
	cutoff := now.Add(-period)
	i := 0
	for i < len(timestamps) && timestamps[i].Before(cutoff) {
		i++
	}
	return timestamps[i:]
}

// Sweep removes clients with no requests in the current window, bounding
// memory growth (spec.md's retention/cleanup concern, §9 "Global state").
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		w.timestamps = dropExpired(w.timestamps, now, l.period)
		if len(w.timestamps) == 0 {
			delete(l.windows, key)
		}
	}
}
