package gorawrstrategy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/breaker"
	"github.com/Keksclan/goRawrStrategy/cache"
	"github.com/Keksclan/goRawrStrategy/interceptors"
	"github.com/Keksclan/goRawrStrategy/internal/core"
	"github.com/Keksclan/goRawrStrategy/metrics"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/ratelimit"
	"github.com/Keksclan/goRawrStrategy/retry"
	"github.com/Keksclan/goRawrStrategy/security"
	"github.com/Keksclan/goRawrStrategy/strategy"
	"github.com/Keksclan/goRawrStrategy/tracing"
	"github.com/Keksclan/goRawrStrategy/whoami"
)

// ErrOutcomeCacheWithoutStore is returned by NewServer when
// WithOutcomeCache is given without a cache layer.
var ErrOutcomeCacheWithoutStore = errors.New("outcome cache needs WithCacheL1 or WithCacheL2")

// Server is a [grpc.Server] with an authentication interceptor chain in
// front of every service registered on it.
//
// After construction the underlying gRPC server is available through
// [Server.GRPC] so that service implementations can be registered normally.
type Server struct {
	grpcServer *grpc.Server
	registry   *strategy.Registry
	cache      cache.Cache
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	chain      []string
}

// NewServer applies opts and builds the server. Interceptor execution order
// is fixed (recovery, request id, logging, tracing, metrics, auth, then
// user interceptors) and does not depend on the order of opts.
//
// Every strategy given with WithStrategy is wrapped by the configured
// decorators, outermost first: tracing, metrics, IP blocking, rate
// limiting, outcome caching, circuit breaking and retries. Unless a
// strategy of that name was given, strategy.Anonymous is registered
// undecorated as "anonymous" for groups that allow unauthenticated calls.
func NewServer(opts ...Option) (*Server, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, err
	}

	srv := &Server{
		registry: strategy.NewRegistry(),
		cache:    cfg.cache(),
	}
	if cfg.cacheTTL > 0 && srv.cache == nil {
		return nil, ErrOutcomeCacheWithoutStore
	}
	if cfg.metricsReg != nil {
		srv.metrics = metrics.New(cfg.metricsReg)
		if g, ok := cfg.metricsReg.(prometheus.Gatherer); ok {
			srv.gatherer = g
		}
	}

	decorators := srv.decorators(&cfg)
	for _, ns := range cfg.strategies {
		s := ns.strategy
		if ns.name != "" && strategy.NameOf(s) != ns.name {
			s = strategy.Func(ns.name, s.Authenticate)
		}
		if err := srv.registry.Register(ns.name, decorators.Apply(ns.name, s)); err != nil {
			return nil, err
		}
	}

	if _, ok := srv.registry.Lookup(strategy.AnonymousName); !ok {
		_ = srv.registry.Register(strategy.AnonymousName, strategy.Anonymous)
	}

	srv.addInterceptors(&cfg)
	srv.chain = cfg.middlewares.Names()

	unary, stream := cfg.middlewares.Build()
	serverOpts := append(core.BuildServerOptions(unary, stream), cfg.serverOptions...)
	srv.grpcServer = grpc.NewServer(serverOpts...)

	if cfg.whoami {
		srv.RegisterWhoAmI()
	}

	return srv, nil
}

func (s *Server) decorators(cfg *config) *core.DecoratorStack {
	var stack core.DecoratorStack

	if cfg.tracing != nil {
		tc := cfg.tracing
		stack.Add(core.DecorateTracing, func(_ string, inner strategy.Strategy) strategy.Strategy {
			return tracing.Strategy(inner, tc)
		})
	}
	if s.metrics != nil {
		stack.Add(core.DecorateMetrics, func(_ string, inner strategy.Strategy) strategy.Strategy {
			return metrics.Strategy(inner, s.metrics)
		})
	}
	if cfg.blocker != nil {
		stack.Add(core.DecorateIPBlock, func(_ string, inner strategy.Strategy) strategy.Strategy {
			return security.Strategy(cfg.blocker, inner)
		})
	}
	if cfg.limits != nil {
		stack.Add(core.DecorateLimit, func(_ string, inner strategy.Strategy) strategy.Strategy {
			return ratelimit.Strategy(inner, cfg.limits, cfg.limitKey)
		})
	}
	if cfg.cacheTTL > 0 && s.cache != nil {
		stack.Add(core.DecorateCache, func(name string, inner strategy.Strategy) strategy.Strategy {
			return cache.Strategy(inner, s.cache, cache.ByAuthorization(name), cfg.cacheTTL)
		})
	}
	if cfg.breaker != nil {
		stack.Add(core.DecorateBreaker, func(name string, inner strategy.Strategy) strategy.Strategy {
			bc := *cfg.breaker
			if s.metrics != nil {
				observe, user := s.metrics.BreakerObserver(name), bc.OnStateChange
				bc.OnStateChange = func(from, to breaker.State) {
					observe(from, to)
					if user != nil {
						user(from, to)
					}
				}
			}
			return breaker.Strategy(inner, breaker.New(bc))
		})
	}
	if cfg.retry != nil {
		rc := *cfg.retry
		stack.Add(core.DecorateRetry, func(_ string, inner strategy.Strategy) strategy.Strategy {
			return retry.Strategy(inner, rc)
		})
	}

	return &stack
}

func (s *Server) addInterceptors(cfg *config) {
	mw := &cfg.middlewares

	if cfg.recovery {
		mw.Add(core.OrderRecovery, "recovery", interceptors.RecoveryUnary(), interceptors.RecoveryStream())
	}
	mw.Add(core.OrderRequestID, "request_id", interceptors.RequestIDUnary(), interceptors.RequestIDStream())
	if cfg.logger != nil {
		mw.Add(core.OrderLogging, "logging", interceptors.LoggingUnary(*cfg.logger), interceptors.LoggingStream(*cfg.logger))
	}
	if cfg.tracing != nil {
		mw.Add(core.OrderTracing, "tracing", tracing.UnaryServerInterceptor(cfg.tracing), tracing.StreamServerInterceptor(cfg.tracing))
	}
	if s.metrics != nil {
		mw.Add(core.OrderMetrics, "metrics", s.metrics.UnaryServerInterceptor(), s.metrics.StreamServerInterceptor())
	}
	if cfg.authEnabled() {
		fn := auth.FromPolicies(s.registry, policy.NewResolver(cfg.groups...), cfg.authOpts...)
		mw.Add(core.OrderAuth, "auth", interceptors.AuthUnary(fn), interceptors.AuthStream(fn))
	}
	for i, u := range cfg.unaryInterceptors {
		mw.Add(core.OrderUser, fmt.Sprintf("unary[%d]", i), u, nil)
	}
	for i, st := range cfg.streamInterceptors {
		mw.Add(core.OrderUser, fmt.Sprintf("stream[%d]", i), nil, st)
	}
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Registry returns the decorated strategies by name. Strategies registered
// on it directly after NewServer are used as they are.
func (s *Server) Registry() *strategy.Registry {
	return s.registry
}

// Cache returns the cache configured via WithCacheL1 and WithCacheL2, or nil.
func (s *Server) Cache() cache.Cache {
	return s.cache
}

// Interceptors returns the names of the installed interceptors in execution
// order.
func (s *Server) Interceptors() []string {
	return s.chain
}

// RegisterWhoAmI registers the built-in rawr.WhoAmI service using
// whoami.DefaultHandler.
func (s *Server) RegisterWhoAmI() {
	whoami.Register(s.grpcServer, whoami.DefaultHandler())
}

// RegisterHealth registers the standard gRPC health service and returns it
// so that callers can update serving states.
func (s *Server) RegisterHealth() *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, hs)
	return hs
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics from
// the registry given to WithMetrics, or from the default registry.
func (s *Server) MetricsHandler() http.Handler {
	if s.gatherer != nil {
		return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
