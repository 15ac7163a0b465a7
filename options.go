package gorawrstrategy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/breaker"
	"github.com/Keksclan/goRawrStrategy/cache"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/ratelimit"
	"github.com/Keksclan/goRawrStrategy/retry"
	"github.com/Keksclan/goRawrStrategy/security"
	"github.com/Keksclan/goRawrStrategy/strategy"
	"github.com/Keksclan/goRawrStrategy/tracing"
)

// Option configures a Server.
type Option func(*config)

// WithUnaryInterceptor appends a unary server interceptor to the chain. User
// interceptors run after the built-in ones, in the order given.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.unaryInterceptors = append(c.unaryInterceptors, i)
	}
}

// WithStreamInterceptor appends a stream server interceptor to the chain.
func WithStreamInterceptor(i grpc.StreamServerInterceptor) Option {
	return func(c *config) {
		c.streamInterceptors = append(c.streamInterceptors, i)
	}
}

// WithServerOptions passes opts to grpc.NewServer.
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(c *config) {
		c.serverOptions = append(c.serverOptions, opts...)
	}
}

// WithRecovery installs panic-recovery interceptors at the front of the
// unary and stream chains so that a panic inside a handler returns
// codes.Internal instead of crashing the process.
func WithRecovery() Option {
	return func(c *config) { c.recovery = true }
}

// WithLogger logs one line per finished call and makes logger available to
// strategies through zerolog.Ctx.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = &logger }
}

// WithStrategy registers s under name. Names must be unique.
func WithStrategy(name string, s strategy.Strategy) Option {
	return func(c *config) {
		c.strategies = append(c.strategies, namedStrategy{name: name, strategy: s})
	}
}

// WithPolicies adds method groups. Each call appends to the groups already
// configured.
func WithPolicies(groups ...*policy.GroupBuilder) Option {
	return func(c *config) {
		c.groups = append(c.groups, groups...)
	}
}

// WithDefaultStrategies names the strategies run for methods whose policy
// lists none.
func WithDefaultStrategies(names ...string) Option {
	return WithAuth(auth.DefaultStrategies(names...))
}

// WithAuth passes opts to the authenticators built for every policy group.
func WithAuth(opts ...auth.Option) Option {
	return func(c *config) {
		c.authOpts = append(c.authOpts, opts...)
	}
}

// WithOpenTelemetry traces every call and every strategy run.
func WithOpenTelemetry(cfg tracing.Config) Option {
	return func(c *config) { c.tracing = &cfg }
}

// WithMetrics registers the Prometheus collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		c.metricsReg = reg
	}
}

// WithCacheL1 enables the in-process cache with room for maxCost entries.
func WithCacheL1(maxCost int64) Option {
	return func(c *config) {
		l1, err := cache.NewL1(maxCost)
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.l1 = l1
	}
}

// WithCacheL2 enables the Redis cache at addr. Combined with WithCacheL1 the
// two form a tiered cache.
func WithCacheL2(addr, password string, db int, opts ...cache.L2Option) Option {
	return func(c *config) { c.l2 = cache.NewL2(addr, password, db, opts...) }
}

// WithCacheL2Client is WithCacheL2 for an existing Redis client.
func WithCacheL2Client(rdb redis.UniversalClient, opts ...cache.L2Option) Option {
	return func(c *config) { c.l2 = cache.NewL2FromClient(rdb, opts...) }
}

// WithOutcomeCache caches successful strategy outcomes for ttl, keyed by the
// authorization header. It needs WithCacheL1 or WithCacheL2.
func WithOutcomeCache(ttl time.Duration) Option {
	return func(c *config) { c.cacheTTL = ttl }
}

// WithRateLimit limits authentication attempts per key to rps with the given
// burst. A nil key limits per client address.
func WithRateLimit(rps float64, burst int, key ratelimit.KeyFunc) Option {
	return func(c *config) {
		if key == nil {
			key = ratelimit.ByPeer
		}
		c.limits = ratelimit.NewKeyed(rps, burst)
		c.limitKey = key
	}
}

// WithBreaker guards every strategy with its own circuit breaker.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *config) { c.breaker = &cfg }
}

// WithRetry re-runs strategies that signalled a retryable error.
func WithRetry(cfg retry.Config) Option {
	return func(c *config) { c.retry = &cfg }
}

// WithIPBlock rejects clients whose address cfg does not allow before any
// strategy looks at the request.
func WithIPBlock(cfg security.Config) Option {
	return func(c *config) {
		b, err := security.NewIPBlocker(cfg)
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.blocker = b
	}
}

// WithWhoAmI registers the built-in rawr.WhoAmI service.
func WithWhoAmI() Option {
	return func(c *config) { c.whoami = true }
}
