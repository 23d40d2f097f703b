// Package retry implements the fixed-delay retry policy applied to upstream
// calls, decoupled from the call sites so attempt budgets and delays live in
// config rather than in ad hoc loops.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first call.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Retryable decides whether an error is transient. Nil retries everything
	// except context cancellation.
	Retryable func(error) bool
}

// permanentError marks an error that must never be retried, regardless of the
// policy's predicate.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops immediately and returns it.
func Permanent(err error) error { return &permanentError{err: err} }

// Do runs op until it succeeds, the attempt budget is spent, or the context
// is cancelled. It returns the last error on exhaustion so callers can wrap
// it in their upstream-unavailable classification.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) || errors.Is(lastErr, context.Canceled) || !p.retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if !sleepWithContext(ctx, p.Delay) {
			return lastErr
		}
	}
	return lastErr
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
