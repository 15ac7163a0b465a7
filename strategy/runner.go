package strategy

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Pending is the awaitable side of a run started with [Start]. It completes
// once, when the strategy signals its first outcome.
type Pending struct {
	done chan struct{}
	res  Result
	err  error
}

// Done is closed when the run has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the run completes and returns its outcome. If ctx ends
// first, Wait returns ctx.Err(); the run itself is not affected and can be
// waited for again.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start runs s against req and returns a Pending that settles with the first
// outcome s signals. Authenticate is called on the calling goroutine. A panic
// raised by Authenticate completes the run with a *PanicError. A panic raised
// after s already signalled keeps that outcome and is logged at error level.
//
// A strategy that never signals leaves the Pending incomplete forever; there
// is no built-in timeout.
func Start(ctx context.Context, s Strategy, req any, opts Options) *Pending {
	p := &Pending{done: make(chan struct{})}
	run(ctx, s, req, opts, true, func(res Result, err error) {
		p.res, p.err = res, err
		close(p.done)
	})
	return p
}

// Run is Start followed by Wait with the same ctx.
func Run(ctx context.Context, s Strategy, req any, opts Options) (Result, error) {
	return Start(ctx, s, req, opts).Wait(ctx)
}

// RunCallback runs s against req and invokes cb exactly once with the first
// outcome s signals. cb may run on the calling goroutine before RunCallback
// returns or later on the goroutine the strategy signals from. Panics raised
// by Authenticate are not recovered. Strategies wrapping another one run it
// through [Run], so a panic of the wrapped strategy reaches cb as a
// *PanicError instead.
func RunCallback(ctx context.Context, s Strategy, req any, opts Options, cb Callback) {
	run(ctx, s, req, opts, false, func(res Result, err error) {
		cb(err, res)
	})
}

// run is shared by both calling conventions; deliver decides how the single
// completion reaches the caller.
func run(ctx context.Context, s Strategy, req any, opts Options, recoverPanic bool, deliver func(Result, error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = Options{}
	}

	c := newContext(ctx, s, deliver)
	if recoverPanic {
		defer func() {
			if r := recover(); r != nil && !c.settle(nil, &PanicError{Strategy: NameOf(s), Value: r}) {
				zerolog.Ctx(ctx).Error().
					Str("strategy", NameOf(s)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("Strategy panicked after signalling an outcome")
			}
		}()
	}
	s.Authenticate(c, req, opts)
}

// Forward signals res, or err when it is non-nil, on c. Strategies that wrap
// another strategy use it to hand the inner outcome to their own caller
// unchanged.
func Forward(c *Context, res Result, err error) {
	switch {
	case err != nil:
		c.Error(err)
	case res == nil:
		c.Error(ErrNoOutcome)
	default:
		c.complete(res, nil)
	}
}
