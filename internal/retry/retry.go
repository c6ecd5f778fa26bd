// Package retry provides the single bounded-retry policy shared by the local
// store (lock contention) and the remote client (transport failures). Each
// call site parameterizes attempts, base delay, and backoff shape instead of
// growing its own ad hoc loop.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes how a fallible operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries before giving up.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed delay.
	MaxDelay time.Duration

	// Backoff computes the delay for a given attempt index (0-based).
	// Defaults to Exponential when nil.
	Backoff func(base time.Duration, attempt int) time.Duration

	// Retryable reports whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
}

// Do executes fn up to MaxAttempts times. It returns nil on the first
// successful call, the error unchanged when Retryable rejects it, or a
// wrapped error containing the last failure once attempts are exhausted.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	backoff := p.Backoff
	if backoff == nil {
		backoff = Exponential
	}

	var lastErr error
	for attempt := range p.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt < p.MaxAttempts-1 {
			delay := backoff(p.BaseDelay, attempt)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

// Linear grows the delay by one base interval per attempt: base, 2·base, …
// Used for SQLite lock contention, where waiting out the writer is the goal.
func Linear(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt+1)
}

// Exponential doubles the delay per attempt and applies 50–100 % jitter,
// uniform in [delay/2, delay).
func Exponential(base time.Duration, attempt int) time.Duration {
	delay := base * (1 << attempt)
	jitter := time.Duration(rand.Int63n(int64(delay) / 2)) //nolint:gosec // jitter does not need crypto/rand
	return delay/2 + jitter
}
