package ratelimit

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// KeyFunc derives the bucket key of a request.
type KeyFunc func(req any, opts strategy.Options) string

// Strategy wraps inner so that requests whose key has exhausted its bucket
// fail with status 429 without running inner.
func Strategy(inner strategy.Strategy, limits *Keyed, key KeyFunc) strategy.Strategy {
	name := strategy.NameOf(inner)
	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		k := key(req, opts)
		if !limits.Allow(k) {
			zerolog.Ctx(c.Context()).Debug().
				Str("strategy", name).
				Str("key", k).
				Msg("Rate limit exceeded")
			c.Fail(strategy.Feedback{Message: "too many authentication attempts"}, http.StatusTooManyRequests)
			return
		}

		res, err := strategy.Run(c.Context(), inner, req, opts)
		strategy.Forward(c, res, err)
	})
}
