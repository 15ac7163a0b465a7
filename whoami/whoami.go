// Package whoami provides a built-in WhoAmI RPC that reports the identity
// the auth interceptor established for the call. It is registered through a
// hand-written [grpc.ServiceDesc], so no protobuf code generation is
// required.
//
// The request and response are plain Go structs. The package therefore
// registers a codec under the "proto" name that JSON-encodes WhoAmI
// messages and hands every other message to the protobuf codec.
package whoami

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // register the proto codec before replacing it
	"google.golang.org/protobuf/proto"

	"github.com/Keksclan/goRawrStrategy/contextx"
)

// FullMethod is the full gRPC method name of WhoAmI.
const FullMethod = "/rawr.WhoAmI/WhoAmI"

// Request is the input of WhoAmI.
type Request struct{}

// Response describes the caller.
type Response struct {
	Authenticated  bool     `json:"authenticated"`
	Subject        string   `json:"subject,omitempty"`
	Tenant         string   `json:"tenant,omitempty"`
	ClientID       string   `json:"client_id,omitempty"`
	Scopes         []string `json:"scopes,omitempty"`
	Strategy       string   `json:"strategy,omitempty"`
	Group          string   `json:"group,omitempty"`
	RequestID      string   `json:"request_id,omitempty"`
	ServerTimeUnix int64    `json:"server_time_unix"`
}

type message interface {
	isWhoAmIMessage()
}

func (*Request) isWhoAmIMessage()  {}
func (*Response) isWhoAmIMessage() {}

// Handler implements the WhoAmI service.
type Handler interface {
	WhoAmI(ctx context.Context, req *Request) (*Response, error)
}

// DefaultHandler answers from the actor, policy group and request id
// stored in the context.
func DefaultHandler() Handler { return defaultHandler{now: time.Now} }

type defaultHandler struct {
	now func() time.Time
}

func (h defaultHandler) WhoAmI(ctx context.Context, _ *Request) (*Response, error) {
	resp := &Response{
		Group:          contextx.GroupFromContext(ctx),
		RequestID:      contextx.RequestIDFromContext(ctx),
		ServerTimeUnix: h.now().Unix(),
	}
	if actor, ok := contextx.ActorFromContext(ctx); ok {
		resp.Authenticated = true
		resp.Subject = actor.Subject
		resp.Tenant = actor.Tenant
		resp.ClientID = actor.ClientID
		resp.Scopes = actor.Scopes
		resp.Strategy = actor.Strategy
	}
	return resp, nil
}

// ServiceDesc is the grpc.ServiceDesc of the rawr.WhoAmI service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rawr.WhoAmI",
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rawr/whoami.proto",
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(Request)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).WhoAmI(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).WhoAmI(ctx, r.(*Request))
	}
	return interceptor(ctx, req, info, handler)
}

// Register registers h on s.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

func init() {
	encoding.RegisterCodec(codec{})
}

// codec JSON-encodes WhoAmI messages and delegates protobuf messages to
// the proto package.
type codec struct{}

func (codec) Name() string { return "proto" }

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case message:
		return json.Marshal(m)
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("whoami codec: unsupported message type %T", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case message:
		return json.Unmarshal(data, m)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("whoami codec: unsupported message type %T", v)
}
