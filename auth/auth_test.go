package auth_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/contextx"
	"github.com/Keksclan/goRawrStrategy/policy"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// bearer succeeds for "valid-token", passes without a token and fails
// otherwise.
func bearer() strategy.Strategy {
	return strategy.Func("bearer", func(c *strategy.Context, req any, _ strategy.Options) {
		r := req.(*auth.Request)
		token, ok := r.BearerToken()
		switch {
		case !ok:
			c.Pass()
		case token == "valid-token":
			c.Success("user-1", "scope=read")
		default:
			c.Fail(`Bearer realm="api", error="invalid_token"`, 401)
		}
	})
}

func fixed(name string, fn strategy.StrategyFunc) strategy.Strategy {
	return strategy.Func(name, fn)
}

func mdWithToken(token string) metadata.MD {
	return metadata.Pairs("authorization", "Bearer "+token)
}

func TestAuthenticatorOutcomes(t *testing.T) {
	t.Parallel()

	boom := errors.New("idp unreachable")

	for uc, tc := range map[string]struct {
		strategies []strategy.Strategy
		opts       []auth.Option
		md         metadata.MD
		assert     func(t *testing.T, ctx context.Context, err error)
	}{
		"success stores actor": {
			strategies: []strategy.Strategy{bearer()},
			md:         mdWithToken("valid-token"),
			assert: func(t *testing.T, ctx context.Context, err error) {
				t.Helper()

				require.NoError(t, err)
				actor, ok := contextx.ActorFromContext(ctx)
				require.True(t, ok)
				assert.Equal(t, "user-1", actor.Subject)
				assert.Equal(t, "bearer", actor.Strategy)
				assert.Equal(t, "user-1", actor.User)
				assert.Equal(t, "scope=read", actor.Info)
			},
		},
		"failure yields challenge": {
			strategies: []strategy.Strategy{bearer()},
			md:         mdWithToken("nope"),
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				var ce *auth.ChallengeError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, []string{`Bearer realm="api", error="invalid_token"`}, ce.Challenges)
				assert.Equal(t, 401, ce.StatusCode())
			},
		},
		"pass continues unauthenticated": {
			strategies: []strategy.Strategy{bearer()},
			assert: func(t *testing.T, ctx context.Context, err error) {
				t.Helper()

				require.NoError(t, err)
				_, ok := contextx.ActorFromContext(ctx)
				assert.False(t, ok)
			},
		},
		"pass rejected when required": {
			strategies: []strategy.Strategy{bearer()},
			opts:       []auth.Option{auth.RequireAuth(true)},
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				require.ErrorIs(t, err, &auth.ChallengeError{})
				assert.Contains(t, err.Error(), "authentication required")
			},
		},
		"no strategies and required": {
			opts: []auth.Option{auth.RequireAuth(true)},
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				require.ErrorIs(t, err, &auth.ChallengeError{})
			},
		},
		"failures are combined and next strategy runs": {
			strategies: []strategy.Strategy{
				fixed("basic", func(c *strategy.Context, _ any, _ strategy.Options) { c.Fail(`Basic realm="api"`) }),
				fixed("limited", func(c *strategy.Context, _ any, _ strategy.Options) {
					c.Fail(strategy.Feedback{Message: "too many attempts"}, 429)
				}),
				fixed("digest", func(c *strategy.Context, _ any, _ strategy.Options) { c.Fail("Digest", 401) }),
			},
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				var ce *auth.ChallengeError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, []string{`Basic realm="api"`, "Digest"}, ce.Challenges)
				assert.Equal(t, 429, ce.Status)
				assert.Equal(t, "too many attempts", ce.Message)
			},
		},
		"failure then success": {
			strategies: []strategy.Strategy{
				fixed("basic", func(c *strategy.Context, _ any, _ strategy.Options) { c.Fail() }),
				bearer(),
			},
			md: mdWithToken("valid-token"),
			assert: func(t *testing.T, ctx context.Context, err error) {
				t.Helper()

				require.NoError(t, err)
				actor, ok := contextx.ActorFromContext(ctx)
				require.True(t, ok)
				assert.Equal(t, "bearer", actor.Strategy)
			},
		},
		"redirect": {
			strategies: []strategy.Strategy{
				fixed("oidc", func(c *strategy.Context, _ any, _ strategy.Options) { c.Redirect("https://idp.example/auth") }),
			},
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				var re *auth.RedirectError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, "oidc", re.Strategy)
				assert.Equal(t, "https://idp.example/auth", re.URL)
				assert.Equal(t, 302, re.Status)
			},
		},
		"error": {
			strategies: []strategy.Strategy{
				fixed("remote", func(c *strategy.Context, _ any, _ strategy.Options) { c.Error(boom) }),
				bearer(),
			},
			md: mdWithToken("valid-token"),
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				var se *auth.StrategyError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "remote", se.Strategy)
				require.ErrorIs(t, err, boom)
			},
		},
		"custom user mapper": {
			strategies: []strategy.Strategy{bearer()},
			opts: []auth.Option{auth.WithUserMapper(func(user, _ any) (contextx.Actor, error) {
				return contextx.Actor{Subject: "mapped-" + user.(string), Tenant: "acme"}, nil
			})},
			md: mdWithToken("valid-token"),
			assert: func(t *testing.T, ctx context.Context, err error) {
				t.Helper()

				require.NoError(t, err)
				actor, _ := contextx.ActorFromContext(ctx)
				assert.Equal(t, "mapped-user-1", actor.Subject)
				assert.Equal(t, "acme", actor.Tenant)
			},
		},
		"timeout on silent strategy": {
			strategies: []strategy.Strategy{
				fixed("silent", func(*strategy.Context, any, strategy.Options) {}),
			},
			opts: []auth.Option{auth.WithTimeout(10 * time.Millisecond)},
			assert: func(t *testing.T, _ context.Context, err error) {
				t.Helper()

				require.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
	} {
		t.Run(uc, func(t *testing.T) {
			t.Parallel()

			fn := auth.FromStrategies(tc.strategies, tc.opts...)
			ctx, err := fn(t.Context(), "/svc.Service/Get", tc.md)

			tc.assert(t, ctx, err)
		})
	}
}

func TestAuthenticatorPassesOptions(t *testing.T) {
	t.Parallel()

	var got strategy.Options
	s := fixed("opts", func(c *strategy.Context, _ any, opts strategy.Options) {
		got = opts
		c.Pass()
	})

	_, err := auth.FromStrategies([]strategy.Strategy{s}, auth.WithOptions(strategy.Options{"scope": "read"}))(
		t.Context(), "/svc.Service/Get", nil)

	require.NoError(t, err)
	assert.Equal(t, strategy.Options{"scope": "read"}, got)
}

func TestRequest(t *testing.T) {
	t.Parallel()

	addr := &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 1234}
	ctx := peer.NewContext(t.Context(), &peer.Peer{Addr: addr})

	req := auth.NewRequest(ctx, "/svc.Service/Get", metadata.Pairs("authorization", "bearer abc "))

	assert.Equal(t, "/svc.Service/Get", req.FullMethod)
	assert.Equal(t, addr, req.Peer)

	token, ok := req.BearerToken()
	require.True(t, ok)
	assert.Equal(t, "abc", token)

	req = auth.NewRequest(t.Context(), "/svc.Service/Get", metadata.Pairs("authorization", "Basic Zm9vOmJhcg=="))
	_, ok = req.BearerToken()
	assert.False(t, ok)
	scheme, creds, ok := req.Credentials()
	require.True(t, ok)
	assert.Equal(t, "Basic", scheme)
	assert.Equal(t, "Zm9vOmJhcg==", creds)
	assert.Nil(t, req.Peer)

	req = auth.NewRequest(t.Context(), "/svc.Service/Get", nil)
	_, _, ok = req.Credentials()
	assert.False(t, ok)
	assert.Empty(t, req.Header("authorization"))
}

func TestFromPolicies(t *testing.T) {
	t.Parallel()

	reg := strategy.NewRegistry()
	require.NoError(t, reg.Register("bearer", bearer()))
	require.NoError(t, reg.Register("deny", fixed("deny", func(c *strategy.Context, _ any, opts strategy.Options) {
		c.Fail(opts["realm"], 403)
	})))

	res := policy.NewResolver(
		policy.Group("admin").Prefix("/admin.").Policy(policy.Policy{
			Strategies: []string{"deny"},
			Options:    strategy.Options{"realm": "admin"},
		}),
		policy.Group("private").Prefix("/private.").Policy(policy.Policy{AuthRequired: true}),
		policy.Group("broken").Prefix("/broken.").Policy(policy.Policy{Strategies: []string{"missing"}}),
	)

	fn := auth.FromPolicies(reg, res, auth.DefaultStrategies("bearer"))

	t.Run("policy strategies and options", func(t *testing.T) {
		ctx, err := fn(t.Context(), "/admin.Service/Delete", mdWithToken("valid-token"))

		var ce *auth.ChallengeError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"admin"}, ce.Challenges)
		assert.Equal(t, 403, ce.StatusCode())
		assert.Equal(t, "admin", contextx.GroupFromContext(ctx))
	})

	t.Run("default strategies with required auth", func(t *testing.T) {
		_, err := fn(t.Context(), "/private.Service/Get", nil)
		require.ErrorIs(t, err, &auth.ChallengeError{})

		ctx, err := fn(t.Context(), "/private.Service/Get", mdWithToken("valid-token"))
		require.NoError(t, err)
		actor, ok := contextx.ActorFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "user-1", actor.Subject)
		assert.Equal(t, "private", contextx.GroupFromContext(ctx))
	})

	t.Run("unmatched method uses defaults", func(t *testing.T) {
		ctx, err := fn(t.Context(), "/public.Service/Get", nil)

		require.NoError(t, err)
		assert.Empty(t, contextx.GroupFromContext(ctx))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := fn(t.Context(), "/broken.Service/Get", nil)

		require.ErrorIs(t, err, strategy.ErrUnknownStrategy)
	})
}

func TestChallengeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "authentication failed", (&auth.ChallengeError{}).Error())
	assert.Equal(t, "authentication failed (challenge: Basic, Bearer)",
		(&auth.ChallengeError{Challenges: []string{"Basic", "Bearer"}}).Error())
	assert.Equal(t, 401, (&auth.ChallengeError{}).StatusCode())
}
