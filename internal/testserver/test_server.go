// Package testserver runs the full RPC server over an in-memory database for
// end-to-end tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpggio/crowdfund/internal/backend"
	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/rpggio/crowdfund/internal/mcp"
	"github.com/rpggio/crowdfund/internal/sqlite"
	"github.com/rpggio/crowdfund/internal/transport"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Services  *backend.Services
	Authority *transport.TokenAuthority
	Registry  *prometheus.Registry
}

// New starts a server with JWT auth, metrics and the MCP endpoint at /mcp.
func New(t *testing.T) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	authority, err := transport.NewTokenAuthority(testSecret, "crowdfund-test", time.Hour)
	require.NoError(t, err)

	services := backend.NewServices(db, nil)
	handler := services.Handler(nil)

	local := transport.NewLocalTransport(handler)
	mcpServer := mcp.NewServer(mcp.Config{
		Backend:       contract.NewBackendClient(local, nil),
		Escrow:        contract.NewEscrowClient(local, nil),
		Resolver:      authority,
		AuthEnabled:   true,
		TransportMode: "http",
	})

	registry := prometheus.NewRegistry()
	router := transport.NewServer(handler,
		transport.WithAuth(authority),
		transport.WithMetrics(registry),
		transport.WithMount("/mcp", mcp.NewHTTPHandler(mcpServer, 0)),
	)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:    server,
		DB:        db,
		Services:  services,
		Authority: authority,
		Registry:  registry,
	}
}

// Token issues a bearer token for principal.
func (ts *TestServer) Token(t *testing.T, principal string) string {
	t.Helper()
	token, err := ts.Authority.Issue(principal)
	require.NoError(t, err)
	return token
}

// Transport returns an HTTP transport to the server.
func (ts *TestServer) Transport(opts ...transport.HTTPOption) *transport.HTTPTransport {
	return transport.NewHTTPTransport(ts.Server.URL, append([]transport.HTTPOption{
		transport.WithHTTPClient(ts.Server.Client()),
	}, opts...)...)
}

// Backend returns a backend client over HTTP.
func (ts *TestServer) Backend() *contract.BackendClient {
	return contract.NewBackendClient(ts.Transport(), nil)
}

// Escrow returns an escrow client over HTTP.
func (ts *TestServer) Escrow() *contract.EscrowClient {
	return contract.NewEscrowClient(ts.Transport(), nil)
}

// As returns ctx carrying a signed-in identity for principal.
func (ts *TestServer) As(t *testing.T, ctx context.Context, principal string) context.Context {
	t.Helper()
	return identity.WithIdentity(ctx, identity.Identity{Principal: principal, Token: ts.Token(t, principal)})
}
