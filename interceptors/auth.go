package interceptors

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

const (
	headerWWWAuthenticate = "www-authenticate"
	headerLocation        = "location"
	headerRedirectStatus  = "x-redirect-status"
)

// errUnauthenticated is allocated once to avoid per-request allocations on the hot path.
var errUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")

// authError translates the error of an AuthFunc into a gRPC status error and
// the response headers that go with it.
func authError(err error) (metadata.MD, error) {
	var (
		challenge *auth.ChallengeError
		redirect  *auth.RedirectError
		failed    *auth.StrategyError
	)
	switch {
	case errors.As(err, &challenge):
		var md metadata.MD
		if len(challenge.Challenges) > 0 {
			md = metadata.MD{headerWWWAuthenticate: challenge.Challenges}
		}
		return md, status.Error(challengeCode(challenge.StatusCode()), challenge.Error())
	case errors.As(err, &redirect):
		md := metadata.Pairs(
			headerLocation, redirect.URL,
			headerRedirectStatus, strconv.Itoa(redirect.Status),
		)
		return md, status.Error(codes.Unauthenticated, "redirect required")
	case errors.As(err, &failed):
		return nil, status.Error(strategyErrorCode(failed.Cause), failed.Error())
	case errors.Is(err, strategy.ErrUnknownStrategy):
		return nil, status.Error(codes.Internal, err.Error())
	}
	if _, ok := status.FromError(err); ok {
		return nil, err
	}
	return nil, errUnauthenticated
}

func challengeCode(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	default:
		return codes.Unauthenticated
	}
}

func strategyErrorCode(cause error) codes.Code {
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(cause, context.Canceled):
		return codes.Canceled
	}
	if st, ok := status.FromError(cause); ok && st.Code() != codes.Unknown {
		return st.Code()
	}
	return codes.Internal
}

// AuthUnary returns a unary server interceptor that calls the supplied
// AuthFunc before forwarding to the handler. The handler receives the
// context returned by the AuthFunc.
func AuthUnary(fn auth.AuthFunc) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		newCtx, err := fn(ctx, info.FullMethod, md)
		if err != nil {
			header, stErr := authError(err)
			if header != nil {
				_ = grpc.SetHeader(ctx, header)
			}
			return nil, stErr
		}
		return handler(newCtx, req)
	}
}

// AuthStream returns a stream server interceptor that calls the supplied
// AuthFunc before forwarding to the handler.
func AuthStream(fn auth.AuthFunc) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := ss.Context()
		md, _ := metadata.FromIncomingContext(ctx)
		newCtx, err := fn(ctx, info.FullMethod, md)
		if err != nil {
			header, stErr := authError(err)
			if header != nil {
				_ = ss.SetHeader(header)
			}
			return stErr
		}
		return handler(srv, withContext(ss, newCtx))
	}
}
