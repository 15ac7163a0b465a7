// Package retry re-runs operations that fail with a transient error, waiting
// an exponentially growing, jittered delay between attempts.
package retry

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Config struct {
	// MaxAttempts counts the first call too; 1 or less disables retries.
	MaxAttempts int `koanf:"max_attempts"`
	// BaseDelay is the first wait. Every further wait doubles it.
	BaseDelay time.Duration `koanf:"base_delay"`
	// MaxDelay caps a single wait; zero leaves it uncapped.
	MaxDelay time.Duration `koanf:"max_delay"`
	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64 `koanf:"jitter"`
	// RetryCodes are the gRPC codes worth another attempt.
	RetryCodes []codes.Code `koanf:"-"`
	// Retryable replaces the RetryCodes check when set.
	Retryable func(error) bool `koanf:"-"`
}

func (cfg Config) retryable(err error) bool {
	if cfg.Retryable != nil {
		return cfg.Retryable(err)
	}
	if st, ok := status.FromError(err); ok {
		return slices.Contains(cfg.RetryCodes, st.Code())
	}
	return false
}

// Do runs fn until it succeeds, returns an error cfg does not retry, or
// MaxAttempts is used up. A done ctx interrupts the wait and its error is
// returned.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	last := max(cfg.MaxAttempts, 1) - 1

	for attempt := 0; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if attempt == last || !cfg.retryable(err) {
			return zero, err
		}
		if err := wait(ctx, backoff(cfg, attempt)); err != nil {
			return zero, err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
