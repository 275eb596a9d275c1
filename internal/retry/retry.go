package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Policy describes retry mechanics only: how often and how long to wait.
// What counts as retryable is decided by the caller's classifier.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// Delay returns the backoff before the retry following the given
// zero-based attempt, with up to 10% random jitter on top.
func (p Policy) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if p.Jitter {
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1)
	}
	return delay
}

// Do runs op up to p.MaxAttempts times. Failures the classifier rejects are
// returned immediately; retryable ones are retried after the backoff delay.
// When every attempt fails the last error is returned.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	logger := slog.Default().With("component", "retry")

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt+1,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Error("all attempts failed", "attempts", p.MaxAttempts, "error", lastErr)
	return zero, lastErr
}
