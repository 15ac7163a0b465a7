package interceptors

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errInternal is what callers see for every recovered panic.
var errInternal = status.Error(codes.Internal, "internal server error")

// recoverTo must be deferred. It turns a panic into errInternal stored in
// *err and logs the panic value and stack to the logger in ctx.
func recoverTo(ctx context.Context, method string, err *error) {
	r := recover()
	if r == nil {
		return
	}

	ev := zerolog.Ctx(ctx).Error().Str("method", method)
	if e, ok := r.(error); ok {
		ev = ev.Err(e)
	}
	ev.Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("Recovered from panic")

	*err = errInternal
}

// RecoveryUnary returns a unary server interceptor answering panics of the
// rest of the chain with codes.Internal.
func RecoveryUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer recoverTo(ctx, info.FullMethod, &err)
		return handler(ctx, req)
	}
}

// RecoveryStream is the stream counterpart of RecoveryUnary. ss may be nil.
func RecoveryStream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		ctx := context.Background()
		if ss != nil {
			ctx = ss.Context()
		}
		defer recoverTo(ctx, info.FullMethod, &err)
		return handler(srv, ss)
	}
}
