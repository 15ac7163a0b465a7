package breaker

import (
	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Strategy wraps inner with b. While b is open the wrapped strategy signals
// Error(ErrOpen) without running inner. Error outcomes of inner count as
// failures; every other outcome, including an authentication failure,
// shows the backend is reachable and counts as a success.
func Strategy(inner strategy.Strategy, b *Breaker) strategy.Strategy {
	name := strategy.NameOf(inner)
	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		if !b.Allow() {
			zerolog.Ctx(c.Context()).Debug().Str("strategy", name).Msg("Circuit breaker rejected attempt")
			c.Error(ErrOpen)
			return
		}

		res, err := strategy.Run(c.Context(), inner, req, opts)
		if err != nil {
			b.OnFailure()
		} else {
			b.OnSuccess()
		}
		strategy.Forward(c, res, err)
	})
}
