package metrics

import (
	"context"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func (m *Metrics) observe(fullMethod string, err error) {
	service, method := splitMethodName(fullMethod)
	code := strconv.Itoa(int(status.Code(err)))
	m.requests.WithLabelValues(code, service, method).Inc()
}

// UnaryServerInterceptor counts unary calls by status code.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		m.observe(info.FullMethod, err)
		return resp, err
	}
}

// StreamServerInterceptor counts streaming calls by status code.
func (m *Metrics) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		m.observe(info.FullMethod, err)
		return err
	}
}

func splitMethodName(fullMethod string) (string, string) {
	service, method, ok := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	if !ok {
		return "unknown", "unknown"
	}
	return service, method
}
