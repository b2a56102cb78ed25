package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/identity"
)

// PrincipalResolver resolves a principal from a bearer token.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (string, error)
}

// authMiddleware resolves the bearer token on each request into the caller
// identity. Requests without a token run as the anonymous principal.
func authMiddleware(resolver PrincipalResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			id := identity.Anonymous()
			if token := bearerToken(req); token != "" {
				principal, err := resolver.ResolvePrincipal(ctx, token)
				if err != nil {
					return nil, fmt.Errorf("unauthorized: %w", err)
				}
				if principal == "" {
					return nil, fmt.Errorf("unauthorized: invalid bearer token")
				}
				id = identity.Identity{Principal: principal, Token: token}
			}

			return next(identity.WithIdentity(ctx, id), method, req)
		}
	}
}

// anonymousMiddleware runs every request as the anonymous principal.
func anonymousMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(identity.WithIdentity(ctx, identity.Anonymous()), method, req)
		}
	}
}

func bearerToken(req sdkmcp.Request) string {
	if req == nil {
		return ""
	}
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return ""
	}
	auth := extra.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func callerPrincipal(ctx context.Context) string {
	if id, ok := identity.FromContext(ctx); ok {
		return id.Principal
	}
	return ""
}
