package interceptors

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStrategy/contextx"
)

// withLogger attaches a child of logger carrying the method and request id
// to ctx, so that zerolog.Ctx picks it up further down the chain.
func withLogger(ctx context.Context, logger zerolog.Logger, fullMethod string) (context.Context, *zerolog.Logger) {
	l := logger.With().
		Str("method", fullMethod).
		Str("request_id", contextx.RequestIDFromContext(ctx)).
		Logger()
	return l.WithContext(ctx), &l
}

func logFinished(logger *zerolog.Logger, start time.Time, err error) {
	code := status.Code(err)

	evt := logger.Info()
	if err != nil {
		evt = logger.Warn().Err(err)
	}
	evt.Stringer("code", code).
		Dur("duration", time.Since(start)).
		Msg("Finished call")
}

// LoggingUnary returns a unary server interceptor that stores a request
// scoped logger in the context and logs every finished call.
func LoggingUnary(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		ctx, l := withLogger(ctx, logger, info.FullMethod)

		resp, err := handler(ctx, req)
		logFinished(l, start, err)
		return resp, err
	}
}

// LoggingStream is the stream counterpart of LoggingUnary.
func LoggingStream(logger zerolog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		ctx, l := withLogger(ss.Context(), logger, info.FullMethod)

		err := handler(srv, withContext(ss, ctx))
		logFinished(l, start, err)
		return err
	}
}
