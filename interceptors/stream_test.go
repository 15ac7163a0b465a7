package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// fakeStream is a grpc.ServerStream that only supports Context and headers.
type fakeStream struct {
	grpc.ServerStream
	ctx    context.Context
	header metadata.MD
}

func newFakeStream(ctx context.Context) *fakeStream {
	return &fakeStream{ctx: ctx, header: metadata.MD{}}
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func (s *fakeStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}
