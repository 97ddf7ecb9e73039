// Package retry wraps operations with bounded retry and exponential backoff.
package retry

import (
	"context"
	"time"
)

type Options struct {
	// MaxAttempts bounds the number of invocations, first try included.
	MaxAttempts int

	// InitialDelay is the pause before the second attempt; it doubles
	// after every failed attempt (no jitter).
	InitialDelay time.Duration

	// Retryable, when set, is consulted after a failed attempt. A false
	// result stops retrying and returns the error immediately.
	Retryable func(error) bool
}

const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	return o
}

// Do invokes fn up to opts.MaxAttempts times, returning the first
// successful result without additional delay. When attempts are
// exhausted the last error is returned.
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var (
		result  T
		lastErr error
	)

	delay := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}

		if opts.Retryable != nil && !opts.Retryable(lastErr) {
			return result, lastErr
		}

		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}

	return result, lastErr
}
