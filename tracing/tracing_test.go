package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// newTestConfig returns a Config backed by an in-memory span recorder.
func newTestConfig(t *testing.T) (*Config, *tracetest.SpanRecorder) {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return &Config{TracerProvider: tp, Propagators: propagation.TraceContext{}}, rec
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestUnaryServerInterceptor(t *testing.T) {
	t.Parallel()

	for uc, tc := range map[string]struct {
		handler grpc.UnaryHandler
		code    string
		status  codes.Code
	}{
		"creates span": {
			handler: func(context.Context, any) (any, error) { return "ok", nil },
			code:    "OK",
			status:  codes.Ok,
		},
		"records error": {
			handler: func(context.Context, any) (any, error) {
				return nil, status.Error(grpccodes.NotFound, "not found")
			},
			code:   "NotFound",
			status: codes.Error,
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			cfg, rec := newTestConfig(t)

			_, _ = UnaryServerInterceptor(cfg)(t.Context(), "req",
				&grpc.UnaryServerInfo{FullMethod: "/rawr.WhoAmI/WhoAmI"}, tc.handler)

			spans := rec.Ended()
			require.Len(t, spans, 1)

			span := spans[0]
			assert.Equal(t, "/rawr.WhoAmI/WhoAmI", span.Name())
			assert.Equal(t, trace.SpanKindServer, span.SpanKind())
			assert.Equal(t, tc.status, span.Status().Code)

			a := attrs(span)
			assert.Equal(t, "grpc", a["rpc.system"].AsString())
			assert.Equal(t, "rawr.WhoAmI", a["rpc.service"].AsString())
			assert.Equal(t, "WhoAmI", a["rpc.method"].AsString())
			assert.Equal(t, tc.code, a["rpc.grpc.status_code"].AsString())
		})
	}
}

func TestUnaryServerInterceptorExtractsTraceContext(t *testing.T) {
	t.Parallel()

	cfg, rec := newTestConfig(t)

	md := metadata.Pairs("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := metadata.NewIncomingContext(t.Context(), md)

	_, err := UnaryServerInterceptor(cfg)(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/svc/Method"},
		func(_ context.Context, req any) (any, error) { return req, nil })
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
}

func TestServerInterceptorsNilConfigPassthrough(t *testing.T) {
	t.Parallel()

	resp, err := UnaryServerInterceptor(nil)(t.Context(), "hello", &grpc.UnaryServerInfo{},
		func(_ context.Context, req any) (any, error) { return req, nil })
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)

	called := false
	err = StreamServerInterceptor(nil)(nil, &fakeServerStream{ctx: t.Context()}, &grpc.StreamServerInfo{},
		func(any, grpc.ServerStream) error {
			called = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStreamServerInterceptor(t *testing.T) {
	t.Parallel()

	cfg, rec := newTestConfig(t)

	err := StreamServerInterceptor(cfg)(nil, &fakeServerStream{ctx: t.Context()},
		&grpc.StreamServerInfo{FullMethod: "/rawr.WhoAmI/Watch"},
		func(_ any, ss grpc.ServerStream) error {
			assert.True(t, trace.SpanFromContext(ss.Context()).SpanContext().IsValid())
			return errors.New("stream failed")
		})
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/rawr.WhoAmI/Watch", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Watch", attrs(spans[0])["rpc.method"].AsString())
}

func TestStrategy(t *testing.T) {
	t.Parallel()

	for uc, tc := range map[string]struct {
		signal  func(c *strategy.Context)
		outcome string
		status  int64
		code    codes.Code
	}{
		"success": {
			signal:  func(c *strategy.Context) { c.Success("alice", nil) },
			outcome: "success",
			code:    codes.Ok,
		},
		"fail with status": {
			signal:  func(c *strategy.Context) { c.Fail("Basic", 401) },
			outcome: "fail",
			status:  401,
			code:    codes.Ok,
		},
		"redirect": {
			signal:  func(c *strategy.Context) { c.Redirect("/login") },
			outcome: "redirect",
			status:  302,
			code:    codes.Ok,
		},
		"pass": {
			signal:  func(c *strategy.Context) { c.Pass() },
			outcome: "pass",
			code:    codes.Ok,
		},
		"error": {
			signal:  func(c *strategy.Context) { c.Error(errors.New("boom")) },
			outcome: "error",
			code:    codes.Error,
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			cfg, rec := newTestConfig(t)
			inner := strategy.Func("session", func(c *strategy.Context, _ any, _ strategy.Options) {
				assert.True(t, trace.SpanFromContext(c.Context()).SpanContext().IsValid())
				tc.signal(c)
			})

			s := Strategy(inner, cfg)
			_, _ = strategy.Run(t.Context(), s, nil, nil)

			spans := rec.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "authenticate session", spans[0].Name())
			assert.Equal(t, tc.code, spans[0].Status().Code)

			a := attrs(spans[0])
			assert.Equal(t, "session", a["auth.strategy"].AsString())
			assert.Equal(t, tc.outcome, a["auth.outcome"].AsString())
			if tc.status != 0 {
				assert.Equal(t, tc.status, a["auth.status"].AsInt64())
			} else {
				assert.NotContains(t, a, attribute.Key("auth.status"))
			}
		})
	}
}

func TestSplitFullMethod(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		input, service, method string
	}{
		{"/rawr.WhoAmI/WhoAmI", "rawr.WhoAmI", "WhoAmI"},
		{"/service/method", "service", "method"},
		{"noSlash", "noSlash", ""},
	} {
		svc, meth := splitFullMethod(tc.input)
		assert.Equal(t, tc.service, svc, tc.input)
		assert.Equal(t, tc.method, meth, tc.input)
	}
}
