package service

import (
	"sync"
	"time"
)

// RateLimiter is an in-memory per-key sliding-window rate limiter. Each key
// tracks the timestamps of its recent allowed attempts; attempts older than
// the window are pruned on every check. It is safe for concurrent use and
// is process-local, so it resets on restart. Stale keys are automatically
// cleaned up.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter that allows up to limit attempts per key
// within the given window. It starts a background goroutine that
// periodically removes keys with no recent attempts.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := newRateLimiter(limit, window, time.Now)
	go rl.cleanup()
	return rl
}

// newRateLimiter exists so tests can inject a clock without the cleanup
// goroutine.
func newRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		now:     now,
	}
}

// Allow reports whether the given key may proceed. An accepted attempt is
// recorded against the key; a rejected one is not.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	attempts := rl.windows[key]
	recent := attempts[:0]
	for _, t := range attempts {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.windows[key] = recent
		return false
	}

	rl.windows[key] = append(recent, now)
	return true
}

// cleanup runs periodically and removes keys whose every attempt has aged
// out of the window.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-rl.window)
		for key, attempts := range rl.windows {
			if len(attempts) == 0 || !attempts[len(attempts)-1].After(cutoff) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}
