package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/rpggio/crowdfund/internal/transport"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	projects []project.ProjectWithOwner
	profiles map[string]profile.Profile
}

func (f *fakeBackend) ListProjects(context.Context) ([]project.ProjectWithOwner, error) {
	return f.projects, nil
}

func (f *fakeBackend) GetProfile(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, &contract.RemoteCallError{
			Operation: contract.OpGetProfile,
			Err:       transport.NewError(transport.ErrNotFoundCode, "profile not found"),
		}
	}
	return &p, nil
}

func (f *fakeBackend) SearchProfiles(_ context.Context, query string) ([]profile.Profile, error) {
	var out []profile.Profile
	for _, p := range f.profiles {
		if strings.Contains(strings.ToLower(p.FirstName), strings.ToLower(query)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetOwnID(ctx context.Context) (string, error) {
	id, _ := identity.FromContext(ctx)
	return id.Principal, nil
}

func (f *fakeBackend) Healthcheck(context.Context) (bool, error) { return true, nil }

type fakeEscrow map[uint64]escrow.Stats

func (f fakeEscrow) GetProjectStats(_ context.Context, id uint64) (escrow.Stats, error) {
	st, ok := f[id]
	if !ok {
		return escrow.Stats{}, &contract.RemoteCallError{
			Operation: contract.OpGetProjectStats,
			Err:       transport.NewError(transport.ErrNotFoundCode, "no sales"),
		}
	}
	return st, nil
}

func newFakes() (*fakeBackend, fakeEscrow) {
	alice := profile.Profile{ID: "alice", FirstName: "Alice", LastName: "Moon"}
	return &fakeBackend{
			projects: []project.ProjectWithOwner{{
				Project: project.Project{ID: "1", Owner: "alice", NewProject: project.NewProject{
					Title: "Moon Garden", Category: "art", Goal: 12.5, NFTVolume: 100,
				}},
				Owner: alice,
			}},
			profiles: map[string]profile.Profile{"alice": alice},
		}, fakeEscrow{
			1: {NftsSold: 3, NftPriceE8S: 250000000},
		}
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

func decodeStructuredContent[T any](t *testing.T, value any) T {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(result *sdkmcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestServer_ListsTools(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "get_project_stats", "get_profile", "search_profiles", "whoami", "healthcheck",
	}, names)
}

func TestServer_ListProjects(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	result := callTool(t, session, "list_projects", map[string]any{})
	require.False(t, result.IsError, resultText(result))

	out := decodeStructuredContent[ListProjectsOutput](t, result.StructuredContent)
	require.Len(t, out.Projects, 1)
	require.Equal(t, "Moon Garden", out.Projects[0].Title)
	require.Equal(t, "Alice Moon", out.Projects[0].OwnerName)
	require.NotNil(t, out.Projects[0].Tags)
}

func TestServer_ProjectStats(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	result := callTool(t, session, "get_project_stats", map[string]any{"project_id": "1"})
	require.False(t, result.IsError, resultText(result))
	out := decodeStructuredContent[ProjectStatsOutput](t, result.StructuredContent)
	require.EqualValues(t, 3, out.NftsSold)
	require.EqualValues(t, 250000000, out.NftPriceE8S)

	result = callTool(t, session, "get_project_stats", map[string]any{"project_id": "7"})
	require.True(t, result.IsError)
	require.Contains(t, resultText(result), "NOT_FOUND")

	result = callTool(t, session, "get_project_stats", map[string]any{"project_id": "seven"})
	require.True(t, result.IsError)
	require.Contains(t, resultText(result), "INVALID_ARGUMENT")
}

func TestServer_Profiles(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	result := callTool(t, session, "get_profile", map[string]any{"user_id": "alice"})
	require.False(t, result.IsError, resultText(result))
	require.Equal(t, "Alice Moon", decodeStructuredContent[ProfileSummary](t, result.StructuredContent).DisplayName)

	result = callTool(t, session, "get_profile", map[string]any{"user_id": "bob"})
	require.True(t, result.IsError)
	require.Contains(t, resultText(result), "NOT_FOUND")

	result = callTool(t, session, "search_profiles", map[string]any{"query": "ali"})
	require.False(t, result.IsError, resultText(result))
	require.Len(t, decodeStructuredContent[SearchProfilesOutput](t, result.StructuredContent).Profiles, 1)

	result = callTool(t, session, "search_profiles", map[string]any{"query": "zed"})
	require.False(t, result.IsError, resultText(result))
	require.Empty(t, decodeStructuredContent[SearchProfilesOutput](t, result.StructuredContent).Profiles)
}

func TestServer_StdioRunsAnonymous(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	result := callTool(t, session, "whoami", map[string]any{})
	require.False(t, result.IsError, resultText(result))
	out := decodeStructuredContent[WhoAmIOutput](t, result.StructuredContent)
	require.Equal(t, identity.AnonymousPrincipal, out.Principal)
	require.False(t, out.Authenticated)
}

func TestServer_Healthcheck(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{
		Backend:       backend,
		Escrow:        esc,
		TransportMode: "stdio",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	result := callTool(t, session, "healthcheck", map[string]any{})
	require.False(t, result.IsError, resultText(result))
	require.True(t, decodeStructuredContent[HealthcheckOutput](t, result.StructuredContent).Healthy)
}

func TestServer_ContractDocResource(t *testing.T) {
	backend, esc := newFakes()
	session := connect(t, Config{Backend: backend, Escrow: esc, TransportMode: "stdio"})

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "crowdfund://docs/contract"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "| `listProjects` | - | vec ProjectWithOwner | query |")
	require.Contains(t, res.Contents[0].Text, "## escrow")
}

type staticResolver map[string]string

func (r staticResolver) ResolvePrincipal(_ context.Context, token string) (string, error) {
	principal, ok := r[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return principal, nil
}

func TestAuthMiddleware(t *testing.T) {
	var seen identity.Identity
	next := func(ctx context.Context, _ string, _ sdkmcp.Request) (sdkmcp.Result, error) {
		seen, _ = identity.FromContext(ctx)
		return nil, nil
	}
	handler := authMiddleware(staticResolver{"tok": "alice"})(next)

	withHeader := func(value string) sdkmcp.Request {
		header := http.Header{}
		if value != "" {
			header.Set("Authorization", value)
		}
		return &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{Header: header}}
	}

	_, err := handler(context.Background(), "tools/call", withHeader("Bearer tok"))
	require.NoError(t, err)
	require.Equal(t, identity.Identity{Principal: "alice", Token: "tok"}, seen)

	_, err = handler(context.Background(), "tools/call", withHeader(""))
	require.NoError(t, err)
	require.Equal(t, identity.Anonymous(), seen)

	_, err = handler(context.Background(), "tools/call", withHeader("Bearer nope"))
	require.ErrorContains(t, err, "unauthorized")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))

	var apiErr *APIError
	require.ErrorAs(t, MapError(&contract.SchemaError{Operation: "getProfile", Reason: "missing argument"}), &apiErr)
	require.Equal(t, "INVALID_ARGUMENT", apiErr.Code)

	require.ErrorAs(t, MapError(&contract.RemoteCallError{
		Operation: "getMyProfile",
		Err:       transport.NewError(transport.ErrUnauthorizedCode, "sign in"),
	}), &apiErr)
	require.Equal(t, "UNAUTHENTICATED", apiErr.Code)

	require.ErrorAs(t, MapError(&contract.RemoteCallError{Operation: "listProjects", Err: io.ErrUnexpectedEOF}), &apiErr)
	require.Equal(t, "BACKEND_UNAVAILABLE", apiErr.Code)

	plain := errors.New("boom")
	require.Same(t, plain, MapError(plain))
}

func TestFormatPayload_Truncates(t *testing.T) {
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, `{"a":1}`, formatPayload(map[string]int{"a": 1}))

	out := formatPayload(strings.Repeat("x", maxLoggedPayload*2))
	require.True(t, strings.HasSuffix(out, "bytes)"))
	require.Less(t, len(out), maxLoggedPayload+32)
}
