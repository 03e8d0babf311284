package llm

import (
	"context"
	"math"
	"time"
)

// RetryPolicy is an explicit retry-policy value consumed by the generation
// orchestrator: attempt budget, backoff schedule and retryability predicate
// are all injectable so retry behavior is testable without real delays.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget per provider, including the
	// first attempt.
	MaxAttempts int

	// Backoff returns the wait before retrying after the given zero-based
	// attempt.
	Backoff func(attempt int) time.Duration

	// Retryable reports whether the error is worth another attempt.
	Retryable func(err error) bool

	// Sleep waits for the given duration unless the context ends first.
	// Tests substitute a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy waits 2^attempt+1 seconds between attempts and retries
// only transient transport errors. maxAttempts below 1 is clamped to 1 so a
// misconfigured budget still yields at least one provider call.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     ExponentialBackoff,
		Retryable:   IsRetryable,
		Sleep:       SleepContext,
	}
}

// ExponentialBackoff returns 2^attempt + 1 seconds.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))+1) * time.Second
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
