package explain

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window cap on outbound generation calls.
// The window covers the trailing interval; timestamps older than the
// interval are evicted on every check.
type RateLimiter struct {
	mu       sync.Mutex
	maxCalls int
	interval time.Duration
	calls    []time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewRateLimiter returns a limiter allowing maxCalls per interval.
func NewRateLimiter(maxCalls int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		interval: interval,
		now:      time.Now,
	}
}

// Acquire records a call if capacity remains and reports whether the call
// may proceed.
func (r *RateLimiter) Acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evict(now)
	if len(r.calls) >= r.maxCalls {
		return false
	}
	r.calls = append(r.calls, now)
	return true
}

// WaitTime returns how long a caller must wait before Acquire can succeed.
// Zero means capacity is available now.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evict(now)
	if len(r.calls) < r.maxCalls {
		return 0
	}
	oldest := r.calls[0]
	return oldest.Add(r.interval).Sub(now)
}

// evict drops timestamps outside the trailing window. Caller holds mu.
func (r *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-r.interval)
	i := 0
	for i < len(r.calls) && !r.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.calls = append(r.calls[:0], r.calls[i:]...)
	}
}
