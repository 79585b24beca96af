package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/9v2/pyclaw"
)

// effectiveDelay honors a server Retry-After hint when it is longer than
// the configured backoff.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := pyclaw.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. Backoff waits end early when ctx is cancelled.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsTransient(err) || attempt == attempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		slog.WarnContext(ctx, "transient error, retrying",
			"attempt", attempt+1, "max_attempts", attempts, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// DoStream retries establishing a stream. Chunks already delivered on a
// returned channel are never replayed.
func DoStream[T any](ctx context.Context, cfg Config, fn func() (<-chan T, error)) (<-chan T, error) {
	return Do(ctx, cfg, fn)
}
