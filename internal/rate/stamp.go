package rate

import (
	"sync"
	"time"
)

// DefaultGraceSeconds is the boundary window in which a caller arriving
// just after the limit nominally expired is re-penalized for the full
// duration instead of being let through.
const DefaultGraceSeconds = 3

// StampLimiter tracks the last-seen time per caller key and computes the
// remaining throttle time on each call.
type StampLimiter struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	grace int
	now   func() time.Time
}

// NewStampLimiter creates a limiter with the given boundary grace in
// seconds. A non-positive grace falls back to [DefaultGraceSeconds].
func NewStampLimiter(graceSeconds int) *StampLimiter {
	if graceSeconds <= 0 {
		graceSeconds = DefaultGraceSeconds
	}
	return &StampLimiter{
		seen:  make(map[string]time.Time),
		grace: graceSeconds,
		now:   time.Now,
	}
}

// SetClock overrides the limiter's clock. Intended for tests.
func (l *StampLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// CheckAndStamp returns the remaining block time in whole seconds for the
// key, given a per-call limit. Zero means the call is allowed, in which
// case the key is stamped with the current time.
//
// A caller arriving inside the grace boundary right after the window
// nominally closed is treated as a fresh violation: the key is re-stamped
// and the full limit is returned, so rapid-fire retries cannot sneak in at
// window edges.
func (l *StampLimiter) CheckAndStamp(key string, limitSeconds int) int {
	if limitSeconds <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, ok := l.seen[key]
	if !ok {
		l.seen[key] = now
		return 0
	}

	return l.decide(key, last, now, limitSeconds)
}

// decide implements the shared window arithmetic. Must be called with the
// limiter lock held (or on a single-caller path).
func (l *StampLimiter) decide(key string, last, now time.Time, limitSeconds int) int {
	span := last.Add(time.Duration(limitSeconds) * time.Second).Sub(now)
	surplus := int(floorSeconds(span))

	if elapsed := limitSeconds - surplus; elapsed > 0 && elapsed < l.grace {
		l.seen[key] = now
		return limitSeconds
	}

	if surplus > 0 {
		return surplus
	}

	l.seen[key] = now
	return 0
}

func floorSeconds(d time.Duration) int64 {
	sec := d / time.Second
	if d%time.Second < 0 {
		sec--
	}
	return int64(sec)
}
