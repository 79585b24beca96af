package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

var errTransient = pyclaw.NewError(pyclaw.ProviderOpenAI, pyclaw.KindTransient, 503, "unavailable", nil)

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		got, err := Do(ctx, fastConfig(3), func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		got, err := Do(ctx, fastConfig(3), func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errTransient
			}
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		permanent := errors.New("bad key")
		calls := 0
		_, err := Do(ctx, fastConfig(5), func() (int, error) {
			calls++
			return 0, permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		_, err := Do(ctx, fastConfig(2), func() (int, error) {
			calls++
			return 0, errTransient
		})
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		calls := 0
		_, _ = Do(ctx, Config{}, func() (int, error) {
			calls++
			return 0, errTransient
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation interrupts backoff", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := Do(cctx, cfg, func() (int, error) { return 0, errTransient })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEffectiveDelay(t *testing.T) {
	hinted := &pyclaw.Error{Kind: pyclaw.KindTransient, RetryAfter: 3 * time.Second}
	assert.Equal(t, 3*time.Second, effectiveDelay(time.Second, hinted))
	assert.Equal(t, 5*time.Second, effectiveDelay(5*time.Second, hinted))
	assert.Equal(t, time.Second, effectiveDelay(time.Second, errors.New("x")))
}

func TestDoStream(t *testing.T) {
	calls := 0
	ch, err := DoStream(context.Background(), fastConfig(3), func() (<-chan int, error) {
		calls++
		if calls == 1 {
			return nil, errTransient
		}
		out := make(chan int, 1)
		out <- 1
		close(out)
		return out, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 2, calls)
}
