package square

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitStatus is a snapshot of the limiter's sliding window.
type RateLimitStatus struct {
	Allowed              bool `json:"allowed"`
	RequestsInLastSecond int  `json:"requestsInLastSecond"`
	RequestsInLastMinute int  `json:"requestsInLastMinute"`
}

// RateLimiter is a cooperative client-side guard against Square's rate
// limits. It keeps a sliding window of call timestamps and enforces
// independent per-second and per-minute ceilings. Square's own limiter stays
// authoritative; this one exists so we rarely hit it.
//
// All access to the window is mutex-guarded: two concurrent callers must
// never both observe "allowed" before either records its call, so callers
// that intend to proceed should use Allow rather than the CanProceed /
// RecordCall pair.
type RateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
	perSecond  int
	perMinute  int
	now        func() time.Time
}

// NewRateLimiter creates a limiter with the given ceilings. Ceilings must be
// positive.
func NewRateLimiter(perSecond, perMinute int) (*RateLimiter, error) {
	if perSecond <= 0 || perMinute <= 0 {
		return nil, fmt.Errorf("rate limit ceilings must be positive, got %d/s %d/min", perSecond, perMinute)
	}
	return &RateLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		now:       time.Now,
	}, nil
}

// CanProceed reports whether a call may be made right now, along with the
// current window counts. It does not record a call.
func (rl *RateLimiter) CanProceed() RateLimitStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.statusLocked(rl.now())
}

// RecordCall appends a call timestamp to the window.
func (rl *RateLimiter) RecordCall() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.timestamps = append(rl.timestamps, rl.now())
}

// Allow atomically checks both ceilings and, if satisfied, records the call.
// This is the only safe entry point for concurrent callers.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if !rl.statusLocked(now).Allowed {
		return false
	}
	rl.timestamps = append(rl.timestamps, now)
	return true
}

// Wait blocks until the limiter admits a call (recording it) or the context
// ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (rl *RateLimiter) statusLocked(now time.Time) RateLimitStatus {
	rl.pruneLocked(now)
	secondCutoff := now.Add(-time.Second)
	inSecond := 0
	for i := len(rl.timestamps) - 1; i >= 0; i-- {
		if rl.timestamps[i].After(secondCutoff) {
			inSecond++
		} else {
			break
		}
	}
	inMinute := len(rl.timestamps)
	return RateLimitStatus{
		Allowed:              inSecond < rl.perSecond && inMinute < rl.perMinute,
		RequestsInLastSecond: inSecond,
		RequestsInLastMinute: inMinute,
	}
}

// pruneLocked drops timestamps older than the minute window.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(rl.timestamps) && !rl.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.timestamps = append(rl.timestamps[:0], rl.timestamps[i:]...)
	}
}
