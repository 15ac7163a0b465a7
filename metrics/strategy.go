package metrics

import (
	"time"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Strategy wraps inner so that every run is counted by outcome and timed.
func Strategy(inner strategy.Strategy, m *Metrics) strategy.Strategy {
	name := strategy.NameOf(inner)
	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		start := time.Now()
		res, err := strategy.Run(c.Context(), inner, req, opts)

		m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.outcomes.WithLabelValues(name, outcome(res, err)).Inc()

		strategy.Forward(c, res, err)
	})
}

func outcome(res strategy.Result, err error) string {
	if err != nil || res == nil {
		return "error"
	}
	return res.Type().String()
}
