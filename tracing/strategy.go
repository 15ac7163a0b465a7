package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Strategy wraps inner so that every run is recorded as an internal span
// named "authenticate <name>". The span carries auth.strategy and
// auth.outcome attributes; fail outcomes add auth.status when a status was
// given, and error outcomes mark the span as errored. A nil cfg uses the
// global providers.
func Strategy(inner strategy.Strategy, cfg *Config) strategy.Strategy {
	if cfg == nil {
		cfg = &Config{}
	}
	name := strategy.NameOf(inner)

	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		ctx, span := cfg.tracer().Start(c.Context(), "authenticate "+name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("auth.strategy", name)),
		)

		res, err := strategy.Run(ctx, inner, req, opts)
		recordOutcome(span, res, err)
		span.End()

		strategy.Forward(c, res, err)
	})
}

func recordOutcome(span trace.Span, res strategy.Result, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("auth.outcome", "error"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if res == nil {
		return
	}

	span.SetAttributes(attribute.String("auth.outcome", res.Type().String()))
	switch r := res.(type) {
	case strategy.FailResult:
		if r.Status != 0 {
			span.SetAttributes(attribute.Int("auth.status", r.Status))
		}
	case strategy.RedirectResult:
		span.SetAttributes(attribute.Int("auth.status", r.Status))
	}
	span.SetStatus(codes.Ok, "")
}
