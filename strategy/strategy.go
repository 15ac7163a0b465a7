// Package strategy runs pluggable authentication strategies outside of a
// request pipeline.
//
// A [Strategy] never returns its outcome. It signals the outcome by calling
// one of the methods of the [Context] it is handed (Success, Fail, Redirect,
// Pass or Error). The runner turns the first of those calls into a single
// [Result] and delivers it either through a [Callback] ([RunCallback]) or
// through an awaitable [Pending] value ([Start], [Run]).
//
//	res, err := strategy.Run(ctx, bearer, req, nil)
//	if err != nil {
//		return err
//	}
//	switch r := res.(type) {
//	case strategy.SuccessResult:
//		// r.User, r.Info
//	case strategy.FailResult:
//		// r.Challenge, r.Status
//	}
package strategy

import "fmt"

// Options is the opaque option set handed to a strategy. The runner passes it
// through unmodified; a nil Options is replaced by an empty one.
type Options map[string]any

// Strategy is a pluggable authentication check. Authenticate inspects req and
// signals exactly one outcome on c, either before returning or later from
// any goroutine.
type Strategy interface {
	Authenticate(c *Context, req any, opts Options)
}

// Named is implemented by strategies that carry a stable name. The name is
// used for registry lookups, log fields, span attributes and metric labels.
type Named interface {
	Name() string
}

// NameOf returns the name of s, falling back to its dynamic type.
func NameOf(s Strategy) string {
	if n, ok := s.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", s)
}

// StrategyFunc adapts a plain function to the [Strategy] interface.
type StrategyFunc func(c *Context, req any, opts Options)

// Authenticate calls f(c, req, opts).
func (f StrategyFunc) Authenticate(c *Context, req any, opts Options) {
	f(c, req, opts)
}

// namedFunc is a StrategyFunc with a name attached.
type namedFunc struct {
	name string
	fn   StrategyFunc
}

func (n namedFunc) Name() string { return n.name }

func (n namedFunc) Authenticate(c *Context, req any, opts Options) {
	n.fn(c, req, opts)
}

// Func returns a named strategy backed by fn.
func Func(name string, fn StrategyFunc) Strategy {
	return namedFunc{name: name, fn: fn}
}

// Callback receives the outcome of a strategy run. err is non-nil only when
// the strategy signalled Error; res is nil in that case.
type Callback func(err error, res Result)
