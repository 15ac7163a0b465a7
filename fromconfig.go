package gorawrstrategy

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/cache"
	appconfig "github.com/Keksclan/goRawrStrategy/config"
	"github.com/Keksclan/goRawrStrategy/logging"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/ratelimit"
	"github.com/Keksclan/goRawrStrategy/strategy"
	"github.com/Keksclan/goRawrStrategy/tracing"
)

// FromConfig translates a loaded configuration into options. Strategies are
// code and still have to be added with WithStrategy; the configuration
// refers to them by name.
//
// Metrics, when enabled, go to a registry of their own that
// Server.MetricsHandler serves.
func FromConfig(cfg *appconfig.Config) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(logging.New(cfg.Log)),
		WithAuth(auth.RequireAuth(cfg.Auth.Required), auth.WithTimeout(cfg.Auth.Timeout)),
	}

	if cfg.Server.Recovery {
		opts = append(opts, WithRecovery())
	}
	if cfg.Server.WhoAmI {
		opts = append(opts, WithWhoAmI())
	}
	if len(cfg.Auth.DefaultStrategies) != 0 {
		opts = append(opts, WithDefaultStrategies(cfg.Auth.DefaultStrategies...))
	}
	if len(cfg.Auth.Policies) != 0 {
		opts = append(opts, WithPolicies(groups(cfg.Auth.Policies)...))
	}

	if cfg.Cache.L1MaxCost > 0 {
		opts = append(opts, WithCacheL1(cfg.Cache.L1MaxCost))
	}
	if r := cfg.Cache.Redis; r.Addr != "" {
		opts = append(opts, WithCacheL2(r.Addr, r.Password, r.DB, cache.WithKeyPrefix(r.KeyPrefix)))
	}
	if cfg.Cache.AuthTTL > 0 {
		opts = append(opts, WithOutcomeCache(cfg.Cache.AuthTTL))
	}

	if cfg.RateLimit.RPS > 0 {
		opts = append(opts, WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, ratelimit.ByPeer))
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, WithBreaker(cfg.Breaker.Breaker()))
	}
	if cfg.Retry.MaxAttempts > 1 {
		opts = append(opts, WithRetry(cfg.Retry))
	}
	if cfg.IPBlock.Enabled {
		opts = append(opts, WithIPBlock(cfg.IPBlock.Blocker()))
	}

	if cfg.Tracing.Enabled {
		opts = append(opts, WithOpenTelemetry(tracing.Config{}))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, WithMetrics(prometheus.NewRegistry()))
	}

	return opts, nil
}

func groups(policies []appconfig.PolicyConfig) []*policy.GroupBuilder {
	out := make([]*policy.GroupBuilder, 0, len(policies))
	for _, p := range policies {
		g := policy.Group(p.Name)
		for _, m := range p.Exact {
			g.Exact(m)
		}
		for _, m := range p.Prefix {
			g.Prefix(m)
		}
		for _, m := range p.Regex {
			g.Regex(m)
		}
		g.Policy(policy.Policy{
			Strategies:   p.Strategies,
			AuthRequired: p.AuthRequired,
			Options:      strategy.Options(p.Options),
			Timeout:      p.Timeout,
		})
		out = append(out, g)
	}
	return out
}
