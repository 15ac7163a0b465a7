package strategy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Context is the per-run delegation context handed to [Strategy.Authenticate].
// It keeps a reference to the strategy being run and binds the five outcome
// signals to the single pending completion of that run. Only the first
// signal is observed; later ones are dropped.
type Context struct {
	ctx      context.Context
	strategy Strategy

	once    sync.Once
	deliver func(Result, error)
}

func newContext(ctx context.Context, s Strategy, deliver func(Result, error)) *Context {
	return &Context{
		ctx:      ctx,
		strategy: s,
		deliver:  deliver,
	}
}

// Context returns the context.Context the run was started with. Strategies
// should use it for I/O and logging.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Strategy returns the strategy being run. Behaviour that is not one of the
// outcome signals is reached through it.
func (c *Context) Strategy() Strategy {
	return c.strategy
}

// Success signals an authenticated user. info may be nil.
func (c *Context) Success(user, info any) {
	c.complete(SuccessResult{User: user, Info: info}, nil)
}

// Fail signals a failed authentication. See [FailResult] for how the
// optional challenge and status arguments are interpreted:
//
//	c.Fail()
//	c.Fail(`Bearer realm="api"`)
//	c.Fail(`Bearer realm="api"`, 401)
//	c.Fail(403)
//	c.Fail(strategy.Feedback{Message: "unknown user"})
func (c *Context) Fail(args ...any) {
	c.complete(newFailResult(args), nil)
}

// Redirect signals that the client should be sent to url. A missing or zero
// status becomes [DefaultRedirectStatus].
func (c *Context) Redirect(url string, status ...int) {
	code := DefaultRedirectStatus
	if len(status) > 0 && status[0] != 0 {
		code = status[0]
	}
	c.complete(RedirectResult{URL: url, Status: code}, nil)
}

// Pass signals that the strategy makes no decision.
func (c *Context) Pass() {
	c.complete(PassResult{}, nil)
}

// Error completes the run with err instead of a Result. err reaches the
// caller unchanged.
func (c *Context) Error(err error) {
	c.complete(nil, err)
}

// settle delivers res or err unless the run already completed, and reports
// whether it did.
func (c *Context) settle(res Result, err error) bool {
	delivered := false
	c.once.Do(func() {
		delivered = true
		c.deliver(res, err)
	})
	return delivered
}

func (c *Context) complete(res Result, err error) {
	if c.settle(res, err) {
		return
	}

	ev := zerolog.Ctx(c.ctx).Debug().Str("strategy", NameOf(c.strategy))
	if err != nil {
		ev = ev.Err(err)
	} else {
		ev = ev.Stringer("outcome", res.Type())
	}
	ev.Msg("Ignoring outcome signalled after completion")
}
