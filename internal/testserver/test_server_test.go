package testserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/presenter"
	"github.com/stretchr/testify/require"
)

func TestEndToEnd_CreateThenFeature(t *testing.T) {
	ts := New(t)
	backend := ts.Backend()
	escrowClient := ts.Escrow()

	cache := fetch.New(fetch.Options{})
	t.Cleanup(cache.Close)
	ctx := fetch.WithCache(context.Background(), cache)

	// Alice launches her first project through the wizard.
	aliceCtx := ts.As(t, ctx, "alice")
	wizard := presenter.NewWizard(backend, nil)
	proj, err := wizard.Submit(aliceCtx, &profile.NewProfile{FirstName: "Alice", LastName: "Moon"}, presenter.ProjectDraft{
		Title:       "Moon Garden",
		Category:    "art",
		TwitterLink: "https://twitter.com/moongarden",
		Description: "A garden on the moon",
		Goal:        12.5,
		NFTVolume:   100,
	})
	require.NoError(t, err)
	require.Equal(t, "alice", proj.Owner)

	projectID := proj.ID
	require.NoError(t, ts.Services.Stats.RecordSale(context.Background(), mustUint(t, projectID), 3, 250000000))

	// An anonymous visitor sees the project with its stats.
	featured := presenter.NewFeatured(backend, escrowClient, nil)
	q, err := featured.Open(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(q.Close)

	require.Eventually(t, func() bool { return q.Data() != nil }, 5*time.Second, 10*time.Millisecond)
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Data().Wait(waitCtx))

	require.Eventually(t, func() bool {
		view := q.View()
		return len(view.Projects) == 1 && view.Stats[projectID].NftsSold == 3
	}, 5*time.Second, 10*time.Millisecond)

	view := q.View()
	require.Equal(t, "Alice Moon", view.Projects[0].Owner.DisplayName())
	require.False(t, view.Empty)

	// Her manage page redirects straight to the project.
	manage := presenter.NewManage(backend, nil)
	mq, err := manage.Open(aliceCtx, "", nil)
	require.NoError(t, err)
	t.Cleanup(mq.Close)
	require.Eventually(t, func() bool {
		return mq.View().Redirect == presenter.ManageProjectPath(projectID)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEndToEnd_AnonymousCannotCreate(t *testing.T) {
	ts := New(t)

	_, err := ts.Backend().GetMyProjects(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "rpc error -32001")
}

func TestEndToEnd_InvalidTokenRejected(t *testing.T) {
	ts := New(t)
	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc",
		strings.NewReader(`{"jsonrpc":"2.0","id":"1","method":"backend.greet","params":[]}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer forged")

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEndToEnd_Greet(t *testing.T) {
	ts := New(t)

	greeting, err := ts.Backend().Greet(ts.As(t, context.Background(), "alice"))
	require.NoError(t, err)
	require.Equal(t, "Hello, alice!", greeting)
}

func TestEndToEnd_Metrics(t *testing.T) {
	ts := New(t)
	cache := fetch.New(fetch.Options{Registerer: ts.Registry, Namespace: "crowdfund"})
	t.Cleanup(cache.Close)

	sub := cache.Subscribe(fetch.NewKey("healthcheck"), func(ctx context.Context) (any, error) {
		return ts.Backend().Healthcheck(ctx)
	}, nil)
	t.Cleanup(sub.Close)
	require.Eventually(t, func() bool { return sub.State().Status == fetch.StatusReady }, 5*time.Second, 10*time.Millisecond)

	resp, err := ts.Server.Client().Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "crowdfund_fetch_cache_fetches_total 1")
}

type bearerRoundTripper struct {
	token string
	next  http.RoundTripper
}

func (rt bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+rt.token)
	return rt.next.RoundTrip(req)
}

func TestEndToEnd_MCPOverHTTP(t *testing.T) {
	ts := New(t)
	ctx := context.Background()

	httpClient := &http.Client{Transport: bearerRoundTripper{token: ts.Token(t, "alice"), next: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "whoami", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, result.IsError)

	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.JSONEq(t, `{"principal":"alice","authenticated":true}`, string(data))
}

func mustUint(t *testing.T, s string) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, json.Unmarshal([]byte(s), &n))
	return n
}
