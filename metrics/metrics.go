// Package metrics exports Prometheus metrics for strategy runs and gRPC
// calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Keksclan/goRawrStrategy/breaker"
)

const namespace = "rawr"

// Metrics holds the collectors. Create it once per registry with New.
type Metrics struct {
	outcomes     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	requests     *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "outcomes_total",
			Help:      "Count of strategy runs by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "duration_seconds",
			Help:      "Time from starting a strategy until it signalled.",
			Buckets: []float64{
				0.0001, 0.00025, 0.0005, // 100, 250, 500µs
				0.001, 0.0025, 0.005, // 1, 2.5, 5ms
				0.01, 0.025, 0.05, // 10, 25, 50ms
				0.1, 0.25, 0.5, // 100, 250, 500ms
				1, 2.5, 5, // 1, 2.5, 5s
			},
		}, []string{"strategy"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Count of gRPC calls by code, service and method.",
		}, []string{"grpc_code", "grpc_service", "grpc_method"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state per strategy (0 closed, 1 open, 2 half-open).",
		}, []string{"strategy"}),
	}
}

// BreakerObserver returns a breaker.Config.OnStateChange hook that exports
// the state of the breaker guarding the named strategy.
func (m *Metrics) BreakerObserver(name string) func(from, to breaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(breaker.Closed))
	return func(_, to breaker.State) {
		m.breakerState.WithLabelValues(name).Set(float64(to))
	}
}
