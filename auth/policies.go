package auth

import (
	"context"
	"sync"

	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/goRawrStrategy/contextx"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// policyAuth resolves the policy group of every method and keeps one
// Authenticator per group, built lazily on first use.
type policyAuth struct {
	registry *strategy.Registry
	resolver *policy.Resolver
	opts     []Option

	mu     sync.Mutex
	groups map[string]*Authenticator
}

// FromPolicies returns an AuthFunc that picks strategies per method.
//
// The method is resolved against res; the matched group's policy names the
// strategies (looked up in reg), their options, the timeout and whether
// authentication is required. Methods without a group, or whose policy
// lists no strategies, use the strategies given by [DefaultStrategies].
// The matched group name is stored in the context (see contextx.WithGroup).
//
// Strategy names are resolved once per group; register strategies before
// serving.
func FromPolicies(reg *strategy.Registry, res *policy.Resolver, opts ...Option) AuthFunc {
	pa := &policyAuth{
		registry: reg,
		resolver: res,
		opts:     opts,
		groups:   make(map[string]*Authenticator),
	}
	return pa.authenticate
}

func (p *policyAuth) authenticate(ctx context.Context, fullMethod string, md metadata.MD) (context.Context, error) {
	group, pol, _ := p.resolver.Resolve(fullMethod)
	if group != "" {
		ctx = contextx.WithGroup(ctx, group)
	}

	a, err := p.authenticatorFor(group, pol)
	if err != nil {
		return ctx, err
	}
	return a.Authenticate(ctx, NewRequest(ctx, fullMethod, md))
}

func (p *policyAuth) authenticatorFor(group string, pol *policy.Policy) (*Authenticator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.groups[group]; ok {
		return a, nil
	}

	s := newSettings(p.opts)
	names := s.defaults
	if pol != nil {
		if len(pol.Strategies) > 0 {
			names = pol.Strategies
		}
		if pol.Options != nil {
			s.options = pol.Options
		}
		if pol.Timeout > 0 {
			s.timeout = pol.Timeout
		}
		s.required = s.required || pol.AuthRequired
	}

	strategies, err := p.registry.Resolve(names...)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{strategies: strategies, settings: s}
	p.groups[group] = a
	return a, nil
}
