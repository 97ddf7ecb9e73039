// Package ratelimit enforces a minimum spacing between outbound calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter serializes calls and guarantees that consecutive invocations
// start at least one interval apart. One instance is meant to live for
// the duration of a single sync run.
type Limiter struct {
	mu        sync.Mutex
	interval  time.Duration
	lastStart time.Time
}

// New creates a Limiter allowing rps calls per second. rps <= 0 falls
// back to 1 call per second.
func New(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1
	}
	return &Limiter{
		interval: time.Duration(float64(time.Second) / rps),
	}
}

// Execute runs fn once its turn comes up. Concurrent callers block until
// the previous call has started and the interval has elapsed. Errors from
// fn propagate unchanged; the limiter never retries.
func (l *Limiter) Execute(ctx context.Context, fn func() error) error {
	l.mu.Lock()

	wait := time.Until(l.lastStart.Add(l.interval))
	if !l.lastStart.IsZero() && wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.mu.Unlock()
			return ctx.Err()
		case <-timer.C:
		}
	}

	l.lastStart = time.Now()
	l.mu.Unlock()

	return fn()
}
