package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/goRawrStrategy/contextx"
)

// requestID picks the id of the incoming request: the one already in ctx,
// the one the client sent in the x-request-id header, or a fresh UUID.
func requestID(ctx context.Context) string {
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(contextx.RequestIDHeader); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.NewString()
}

// RequestIDUnary returns a unary server interceptor that ensures a request ID
// is present in the context and echoes it as a response header.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(contextx.RequestIDHeader, id))
		return handler(contextx.WithRequestID(ctx, id), req)
	}
}

// RequestIDStream is the stream counterpart of RequestIDUnary.
func RequestIDStream() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := ss.Context()
		id := requestID(ctx)
		_ = ss.SetHeader(metadata.Pairs(contextx.RequestIDHeader, id))
		return handler(srv, withContext(ss, contextx.WithRequestID(ctx, id)))
	}
}
