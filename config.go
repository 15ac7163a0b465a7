package gorawrstrategy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/breaker"
	"github.com/Keksclan/goRawrStrategy/cache"
	"github.com/Keksclan/goRawrStrategy/internal/core"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/ratelimit"
	"github.com/Keksclan/goRawrStrategy/retry"
	"github.com/Keksclan/goRawrStrategy/security"
	"github.com/Keksclan/goRawrStrategy/strategy"
	"github.com/Keksclan/goRawrStrategy/tracing"
)

type namedStrategy struct {
	name     string
	strategy strategy.Strategy
}

// config holds the internal configuration assembled via functional options.
type config struct {
	middlewares core.MiddlewareBuilder
	errs        []error

	logger   *zerolog.Logger
	recovery bool
	whoami   bool

	strategies []namedStrategy
	groups     []*policy.GroupBuilder
	authOpts   []auth.Option

	tracing    *tracing.Config
	metricsReg prometheus.Registerer

	l1       *cache.L1
	l2       *cache.L2
	cacheTTL time.Duration

	limits   *ratelimit.Keyed
	limitKey ratelimit.KeyFunc
	breaker  *breaker.Config
	retry    *retry.Config
	blocker  *security.IPBlocker

	unaryInterceptors  []grpc.UnaryServerInterceptor
	streamInterceptors []grpc.StreamServerInterceptor
	serverOptions      []grpc.ServerOption
}

func (c *config) cache() cache.Cache {
	switch {
	case c.l1 != nil && c.l2 != nil:
		return cache.NewTiered(c.l1, c.l2)
	case c.l1 != nil:
		return c.l1
	case c.l2 != nil:
		return c.l2
	default:
		return nil
	}
}

func (c *config) authEnabled() bool {
	return len(c.strategies) != 0 || len(c.groups) != 0 || len(c.authOpts) != 0
}
