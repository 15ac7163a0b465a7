// Package tracing records OpenTelemetry spans for gRPC calls and strategy
// runs. Nothing is traced unless the server gets WithOpenTelemetry or a
// strategy is wrapped with Strategy.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

const scope = "github.com/Keksclan/goRawrStrategy/tracing"

// Config selects the providers. Nil fields fall back to the otel globals
// at the time a span starts.
type Config struct {
	TracerProvider trace.TracerProvider
	// Propagators read the parent span from incoming metadata.
	Propagators propagation.TextMapPropagator
}

func (c *Config) tracer() trace.Tracer {
	if c.TracerProvider != nil {
		return c.TracerProvider.Tracer(scope)
	}
	return otel.Tracer(scope)
}

// parent returns ctx carrying the remote span context found in the
// incoming metadata, if any.
func (c *Config) parent(ctx context.Context) context.Context {
	prop := c.Propagators
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}
	md, _ := metadata.FromIncomingContext(ctx)
	return prop.Extract(ctx, mdCarrier{md})
}

// mdCarrier exposes gRPC metadata as a propagation.TextMapCarrier. Keys are
// lower case on both sides, so no canonicalisation happens.
type mdCarrier struct{ md metadata.MD }

func (c mdCarrier) Get(key string) string {
	if v := c.md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c mdCarrier) Set(key, value string) {
	if c.md != nil {
		c.md.Set(key, value)
	}
}

func (c mdCarrier) Keys() []string {
	keys := make([]string, 0, len(c.md))
	for k := range c.md {
		keys = append(keys, k)
	}
	return keys
}

// splitFullMethod turns "/pkg.Service/Method" into its service and method.
func splitFullMethod(fullMethod string) (service, method string) {
	service, method, _ = strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	return service, method
}
