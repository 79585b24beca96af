package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MaxRestarts is how many crashes Supervise tolerates.
const MaxRestarts = 5

// Supervise runs fn until it returns nil or ctx is done, restarting it
// after errors and panics up to MaxRestarts times. It returns the last
// error once the restarts are used up.
func Supervise(ctx context.Context, log *slog.Logger, fn func(ctx context.Context) error) error {
	return supervise(ctx, log, MaxRestarts, time.Second, fn)
}

func supervise(ctx context.Context, log *slog.Logger, maxRestarts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}
	crashes := 0
	for {
		err := protect(ctx, fn)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		crashes++
		if crashes >= maxRestarts {
			log.Error("too many crashes, giving up", "crashes", crashes, "error", err)
			return err
		}
		log.Error("gateway crashed, restarting", "crash", crashes, "max", maxRestarts, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

func protect(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx)
}
