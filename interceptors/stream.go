package interceptors

import (
	"context"

	"google.golang.org/grpc"
)

// serverStream overrides the context of a wrapped grpc.ServerStream.
type serverStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *serverStream) Context() context.Context {
	return s.ctx
}

func withContext(ss grpc.ServerStream, ctx context.Context) grpc.ServerStream {
	if ss.Context() == ctx {
		return ss
	}
	return &serverStream{ServerStream: ss, ctx: ctx}
}
