package retry

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Strategy wraps inner so that retryable error outcomes run inner again,
// up to cfg.MaxAttempts times. Success, fail, redirect and pass outcomes are
// delivered as they are.
func Strategy(inner strategy.Strategy, cfg Config) strategy.Strategy {
	name := strategy.NameOf(inner)
	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		attempt := 0
		res, err := Do(c.Context(), cfg, func(ctx context.Context) (strategy.Result, error) {
			attempt++
			res, err := strategy.Run(ctx, inner, req, opts)
			if err != nil && attempt > 1 {
				zerolog.Ctx(ctx).Debug().Err(err).
					Str("strategy", name).
					Int("attempt", attempt).
					Msg("Retried strategy failed")
			}
			return res, err
		})
		strategy.Forward(c, res, err)
	})
}
