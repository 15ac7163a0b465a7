package interceptors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/contextx"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

func TestAuthError(t *testing.T) {
	t.Parallel()

	for uc, tc := range map[string]struct {
		err    error
		code   codes.Code
		header metadata.MD
	}{
		"challenge": {
			err:    &auth.ChallengeError{Challenges: []string{"Basic", "Bearer"}},
			code:   codes.Unauthenticated,
			header: metadata.MD{"www-authenticate": {"Basic", "Bearer"}},
		},
		"forbidden challenge": {
			err:  &auth.ChallengeError{Status: 403},
			code: codes.PermissionDenied,
		},
		"rate limited challenge": {
			err:    &auth.ChallengeError{Challenges: []string{"Bearer"}, Status: 429},
			code:   codes.ResourceExhausted,
			header: metadata.MD{"www-authenticate": {"Bearer"}},
		},
		"redirect": {
			err:    &auth.RedirectError{Strategy: "oidc", URL: "https://idp.example", Status: 303},
			code:   codes.Unauthenticated,
			header: metadata.MD{"location": {"https://idp.example"}, "x-redirect-status": {"303"}},
		},
		"strategy error": {
			err:  &auth.StrategyError{Strategy: "remote", Cause: errors.New("boom")},
			code: codes.Internal,
		},
		"strategy timeout": {
			err:  &auth.StrategyError{Strategy: "remote", Cause: context.DeadlineExceeded},
			code: codes.DeadlineExceeded,
		},
		"strategy status error": {
			err:  &auth.StrategyError{Strategy: "remote", Cause: status.Error(codes.Unavailable, "down")},
			code: codes.Unavailable,
		},
		"unknown strategy": {
			err:  fmt.Errorf("%w: missing", strategy.ErrUnknownStrategy),
			code: codes.Internal,
		},
		"status error passes through": {
			err:  status.Error(codes.FailedPrecondition, "nope"),
			code: codes.FailedPrecondition,
		},
		"plain error": {
			err:  errors.New("bad token"),
			code: codes.Unauthenticated,
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			header, err := authError(tc.err)

			assert.Equal(t, tc.code, status.Code(err))
			assert.Equal(t, tc.header, header)
		})
	}
}

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	fn := auth.FromStrategies([]strategy.Strategy{
		strategy.Func("header", func(c *strategy.Context, req any, _ strategy.Options) {
			r := req.(*auth.Request)
			if r.Header("x-user") == "" {
				c.Fail("Header")
				return
			}
			c.Success(r.Header("x-user"), nil)
		}),
	})
	ic := AuthUnary(fn)

	handler := func(ctx context.Context, _ any) (any, error) {
		actor, _ := contextx.ActorFromContext(ctx)
		return actor.Subject, nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/svc.Service/Get"}

	ctx := metadata.NewIncomingContext(t.Context(), metadata.Pairs("x-user", "alice"))
	resp, err := ic(ctx, "req", info, handler)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp)

	resp, err = ic(t.Context(), "req", info, handler)
	assert.Nil(t, resp)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthStreamPassesContext(t *testing.T) {
	t.Parallel()

	fn := auth.FromStrategies([]strategy.Strategy{
		strategy.Func("always", func(c *strategy.Context, _ any, _ strategy.Options) {
			c.Success("bob", nil)
		}),
	})

	var subject string
	handler := func(_ any, ss grpc.ServerStream) error {
		actor, _ := contextx.ActorFromContext(ss.Context())
		subject = actor.Subject
		return nil
	}

	err := AuthStream(fn)(nil, newFakeStream(t.Context()), &grpc.StreamServerInfo{FullMethod: "/svc.Service/Watch"}, handler)

	require.NoError(t, err)
	assert.Equal(t, "bob", subject)
}

func TestAuthStreamSetsChallengeHeader(t *testing.T) {
	t.Parallel()

	fn := auth.FromStrategies([]strategy.Strategy{
		strategy.Func("basic", func(c *strategy.Context, _ any, _ strategy.Options) {
			c.Fail(`Basic realm="rawr"`)
		}),
	})
	ss := newFakeStream(t.Context())

	err := AuthStream(fn)(nil, ss, &grpc.StreamServerInfo{FullMethod: "/svc.Service/Watch"},
		func(any, grpc.ServerStream) error {
			t.Fatal("handler must not run")
			return nil
		})

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, []string{`Basic realm="rawr"`}, ss.header.Get("www-authenticate"))
}
