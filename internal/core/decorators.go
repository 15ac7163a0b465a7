package core

import (
	"cmp"
	"slices"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Fixed positions of the strategy decorators, outermost first.
const (
	DecorateTracing = 100
	DecorateMetrics = 200
	DecorateIPBlock = 300
	DecorateLimit   = 400
	DecorateCache   = 500
	DecorateBreaker = 600
	DecorateRetry   = 700
)

// Decorator wraps the strategy registered under name.
type Decorator func(name string, s strategy.Strategy) strategy.Strategy

type decorator struct {
	order int
	wrap  Decorator
}

// DecoratorStack applies decorators to strategies in a fixed order
// regardless of the order they were added in.
type DecoratorStack struct {
	entries []decorator
}

// Add registers d at order. Lower orders end up further out.
func (s *DecoratorStack) Add(order int, d Decorator) {
	s.entries = append(s.entries, decorator{order: order, wrap: d})
}

// Len reports the number of decorators.
func (s *DecoratorStack) Len() int { return len(s.entries) }

// Apply wraps inner with every decorator, innermost first.
func (s *DecoratorStack) Apply(name string, inner strategy.Strategy) strategy.Strategy {
	slices.SortStableFunc(s.entries, func(a, b decorator) int {
		return cmp.Compare(a.order, b.order)
	})

	out := inner
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = s.entries[i].wrap(name, out)
	}
	return out
}
