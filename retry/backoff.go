package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff returns the delay after the given attempt (0-indexed): BaseDelay
// doubled per attempt, capped at MaxDelay, then spread by ±Jitter.
func backoff(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if ceiling := float64(cfg.MaxDelay); ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	if cfg.Jitter > 0 {
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(delay, 0))
}
