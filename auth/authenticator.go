package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/goRawrStrategy/contextx"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// UserMapper turns the user and info a strategy succeeded with into an
// Actor. Strategy, User and Info of the returned Actor are filled in by the
// caller.
type UserMapper func(user, info any) (contextx.Actor, error)

// DefaultUserMapper accepts Actor values, strings and fmt.Stringers as the
// user. Any other user yields an Actor without a subject.
func DefaultUserMapper(user, _ any) (contextx.Actor, error) {
	switch u := user.(type) {
	case contextx.Actor:
		return u, nil
	case *contextx.Actor:
		if u != nil {
			return *u, nil
		}
	case string:
		return contextx.Actor{Subject: u}, nil
	case fmt.Stringer:
		return contextx.Actor{Subject: u.String()}, nil
	}
	return contextx.Actor{}, nil
}

type settings struct {
	options  strategy.Options
	mapUser  UserMapper
	required bool
	timeout  time.Duration
	defaults []string
}

// Option configures an Authenticator.
type Option func(*settings)

// WithOptions sets the options handed to every strategy.
func WithOptions(opts strategy.Options) Option {
	return func(s *settings) { s.options = opts }
}

// WithUserMapper replaces DefaultUserMapper.
func WithUserMapper(m UserMapper) Option {
	return func(s *settings) { s.mapUser = m }
}

// RequireAuth rejects requests no strategy authenticated.
func RequireAuth(required bool) Option {
	return func(s *settings) { s.required = required }
}

// WithTimeout bounds how long a single strategy may take to signal.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// DefaultStrategies names the strategies used by FromPolicies for methods
// whose policy does not list any.
func DefaultStrategies(names ...string) Option {
	return func(s *settings) { s.defaults = names }
}

func newSettings(opts []Option) settings {
	s := settings{mapUser: DefaultUserMapper}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// Authenticator runs a fixed list of strategies against requests.
type Authenticator struct {
	strategies []strategy.Strategy
	settings   settings
}

// New creates an Authenticator that tries strategies in order.
func New(strategies []strategy.Strategy, opts ...Option) *Authenticator {
	return &Authenticator{strategies: strategies, settings: newSettings(opts)}
}

// FromStrategies returns an AuthFunc backed by New(strategies, opts...).
func FromStrategies(strategies []strategy.Strategy, opts ...Option) AuthFunc {
	return New(strategies, opts...).AuthFunc()
}

// AuthFunc adapts a to the AuthFunc signature.
func (a *Authenticator) AuthFunc() AuthFunc {
	return func(ctx context.Context, fullMethod string, md metadata.MD) (context.Context, error) {
		return a.Authenticate(ctx, NewRequest(ctx, fullMethod, md))
	}
}

// Authenticate runs the strategies against req in order.
//
// The first success, redirect, pass or error ends the chain. A failure moves
// on to the next strategy; when every strategy failed the failures are
// combined into a *ChallengeError.
func (a *Authenticator) Authenticate(ctx context.Context, req *Request) (context.Context, error) {
	logger := zerolog.Ctx(ctx)
	var failures []strategy.FailResult

	for _, s := range a.strategies {
		name := strategy.NameOf(s)

		res, err := a.run(ctx, s, req)
		if err != nil {
			logger.Warn().Err(err).Str("strategy", name).Str("method", req.FullMethod).
				Msg("Strategy signalled an error")
			return ctx, &StrategyError{Strategy: name, Cause: err}
		}

		logger.Debug().Str("strategy", name).Str("method", req.FullMethod).
			Stringer("outcome", res.Type()).Msg("Strategy completed")

		switch r := res.(type) {
		case strategy.SuccessResult:
			actor, err := a.settings.mapUser(r.User, r.Info)
			if err != nil {
				return ctx, &StrategyError{Strategy: name, Cause: err}
			}
			actor.Strategy, actor.User, actor.Info = name, r.User, r.Info
			return contextx.WithActor(ctx, actor), nil
		case strategy.RedirectResult:
			return ctx, &RedirectError{Strategy: name, URL: r.URL, Status: r.Status}
		case strategy.PassResult:
			if a.settings.required {
				return ctx, &ChallengeError{Message: "authentication required"}
			}
			return ctx, nil
		case strategy.FailResult:
			failures = append(failures, r)
		}
	}

	if len(failures) > 0 {
		return ctx, combineFailures(failures)
	}
	if a.settings.required {
		return ctx, &ChallengeError{Message: "authentication required"}
	}
	return ctx, nil
}

func (a *Authenticator) run(ctx context.Context, s strategy.Strategy, req *Request) (strategy.Result, error) {
	if a.settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.settings.timeout)
		defer cancel()
	}
	return strategy.Run(ctx, s, req, a.settings.options)
}

func combineFailures(failures []strategy.FailResult) *ChallengeError {
	ce := &ChallengeError{}
	for _, f := range failures {
		if c, ok := f.Challenge.(string); ok && c != "" {
			ce.Challenges = append(ce.Challenges, c)
		}
		if ce.Status == 0 {
			ce.Status = f.Status
		}
		if ce.Message == "" {
			ce.Message = f.Message
		}
	}
	return ce
}
