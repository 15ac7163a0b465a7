package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		RetryCodes:  []codes.Code{codes.Unavailable},
	}
}

func TestDo(t *testing.T) {
	t.Parallel()

	for uc, tc := range map[string]struct {
		cfg       Config
		failFirst int
		code      codes.Code
		calls     int
		wantErr   bool
	}{
		"retries on unavailable then succeeds": {
			cfg: fastConfig(4), failFirst: 2, code: codes.Unavailable, calls: 3,
		},
		"stops on non-retryable code": {
			cfg: fastConfig(5), failFirst: 10, code: codes.InvalidArgument, calls: 1, wantErr: true,
		},
		"max attempts exhausted": {
			cfg: fastConfig(3), failFirst: 10, code: codes.Unavailable, calls: 3, wantErr: true,
		},
		"succeeds on first attempt": {
			cfg: fastConfig(3), calls: 1,
		},
		"zero attempts means one call": {
			cfg: fastConfig(0), failFirst: 10, code: codes.Unavailable, calls: 1, wantErr: true,
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			calls := 0
			result, err := Do(t.Context(), tc.cfg, func(context.Context) (string, error) {
				calls++
				if calls <= tc.failFirst {
					return "", status.Error(tc.code, "try again")
				}
				return "ok", nil
			})

			assert.Equal(t, tc.calls, calls)
			if tc.wantErr {
				assert.Equal(t, tc.code, status.Code(err))
				assert.Empty(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", result)
		})
	}
}

func TestDoRespectsContextDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	cfg := Config{
		MaxAttempts: 100,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
		RetryCodes:  []codes.Code{codes.Unavailable},
	}

	_, err := Do(ctx, cfg, func(context.Context) (int, error) {
		return 0, status.Error(codes.Unavailable, "down")
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoRetryablePredicate(t *testing.T) {
	t.Parallel()

	transient := errors.New("transient")
	cfg := fastConfig(3)
	cfg.Retryable = func(err error) bool { return errors.Is(err, transient) }

	calls := 0
	_, err := Do(t.Context(), cfg, func(context.Context) (int, error) {
		calls++
		return 0, transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestBackoffExponentialWithCap(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  500 * time.Millisecond,
	}

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 400*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, 500*time.Millisecond, backoff(cfg, 3))
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	t.Parallel()

	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.2}

	for range 50 {
		d := backoff(cfg, 0)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestStrategy(t *testing.T) {
	t.Parallel()

	unavailable := status.Error(codes.Unavailable, "idp restarting")

	for uc, tc := range map[string]struct {
		outcomes []func(c *strategy.Context)
		calls    int
		assert   func(t *testing.T, res strategy.Result, err error)
	}{
		"retries error outcome": {
			outcomes: []func(c *strategy.Context){
				func(c *strategy.Context) { c.Error(unavailable) },
				func(c *strategy.Context) { c.Success("alice", nil) },
			},
			calls: 2,
			assert: func(t *testing.T, res strategy.Result, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, strategy.SuccessResult{User: "alice"}, res)
			},
		},
		"fail is not retried": {
			outcomes: []func(c *strategy.Context){
				func(c *strategy.Context) { c.Fail(401) },
			},
			calls: 1,
			assert: func(t *testing.T, res strategy.Result, err error) {
				t.Helper()

				require.NoError(t, err)
				assert.Equal(t, strategy.FailResult{Status: 401}, res)
			},
		},
		"gives up after max attempts": {
			outcomes: []func(c *strategy.Context){
				func(c *strategy.Context) { c.Error(unavailable) },
				func(c *strategy.Context) { c.Error(unavailable) },
				func(c *strategy.Context) { c.Error(unavailable) },
			},
			calls: 3,
			assert: func(t *testing.T, res strategy.Result, err error) {
				t.Helper()

				assert.Equal(t, codes.Unavailable, status.Code(err))
				assert.Nil(t, res)
			},
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			calls := 0
			inner := strategy.Func("oidc", func(c *strategy.Context, _ any, _ strategy.Options) {
				tc.outcomes[calls](c)
				calls++
			})

			res, err := strategy.Run(t.Context(), Strategy(inner, fastConfig(3)), nil, nil)

			tc.assert(t, res, err)
			assert.Equal(t, tc.calls, calls)
		})
	}
}
