package backend_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rpggio/crowdfund/internal/backend"
	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/rpggio/crowdfund/internal/sqlite"
	"github.com/rpggio/crowdfund/internal/transport"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*backend.Services, *contract.BackendClient, *contract.EscrowClient) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	services := backend.NewServices(db, nil)
	local := transport.NewLocalTransport(services.Handler(nil))
	return services, contract.NewBackendClient(local, nil), contract.NewEscrowClient(local, nil)
}

func as(principal string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{Principal: principal})
}

func requireRPCCode(t *testing.T, err error, code int) {
	t.Helper()
	var rpcErr *transport.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, code, rpcErr.Code)
}

func TestHandler_CreateFirstProjectAndList(t *testing.T) {
	_, client, _ := setup(t)
	alice := as("alice")

	created, err := client.CreateFirstProject(alice,
		profile.NewProfile{FirstName: "Alice", LastName: "Liddell"},
		project.NewProject{Title: "Moon Garden", Category: "art", Goal: 10, NFTVolume: 50, Tags: []string{"green"}},
	)
	require.NoError(t, err)
	require.Equal(t, "1", created.ID)
	require.Equal(t, "alice", created.Owner)

	me, err := client.GetMyProfile(alice)
	require.NoError(t, err)
	require.Equal(t, "Alice", me.FirstName)

	second, err := client.CreateProject(alice, project.NewProject{Title: "Sea Glass", Category: "music"})
	require.NoError(t, err)
	require.Equal(t, "2", second.ID)

	listed, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "Alice", listed[0].Owner.FirstName)
	require.Equal(t, "Moon Garden", listed[0].Project.Title)

	mine, err := client.GetMyProjects(alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	theirs, err := client.GetProjects(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, mine, theirs)
}

func TestHandler_AnonymousCallers(t *testing.T) {
	_, client, _ := setup(t)
	ctx := context.Background()

	id, err := client.GetOwnID(ctx)
	require.NoError(t, err)
	require.Equal(t, identity.AnonymousPrincipal, id)

	greeting, err := client.Greet(ctx)
	require.NoError(t, err)
	require.Equal(t, "Hello, 2vxsx-fae!", greeting)

	ok, err := client.Healthcheck(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = client.GetMyProjects(ctx)
	require.True(t, contract.IsRemoteCallError(err))
	requireRPCCode(t, err, transport.ErrUnauthorizedCode)

	err = client.CreateProfile(identity.WithIdentity(ctx, identity.Anonymous()), profile.NewProfile{FirstName: "Anon"})
	requireRPCCode(t, err, transport.ErrUnauthorizedCode)
}

func TestHandler_ProfileRules(t *testing.T) {
	_, client, _ := setup(t)
	alice := as("alice")

	require.NoError(t, client.CreateProfile(alice, profile.NewProfile{FirstName: "Alice"}))
	requireRPCCode(t, client.CreateProfile(alice, profile.NewProfile{FirstName: "Again"}), transport.ErrConflictCode)

	err := client.UpdateProfile(as("mallory"), profile.Profile{ID: "alice", FirstName: "Hacked"})
	requireRPCCode(t, err, transport.ErrForbiddenCode)

	require.NoError(t, client.UpdateProfile(alice, profile.Profile{ID: "alice", FirstName: "Alicia"}))
	got, err := client.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "Alicia", got.FirstName)

	found, err := client.SearchProfiles(context.Background(), "alic")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = client.GetProfile(context.Background(), "nobody")
	requireRPCCode(t, err, transport.ErrNotFoundCode)
}

func TestHandler_ProjectStats(t *testing.T) {
	services, client, escrowClient := setup(t)
	alice := as("alice")

	_, err := client.CreateProject(alice, project.NewProject{Title: "Moon Garden", Category: "art"})
	require.NoError(t, err)

	_, err = escrowClient.GetProjectStats(context.Background(), 1)
	requireRPCCode(t, err, transport.ErrNotFoundCode)

	require.NoError(t, services.Stats.RecordSale(context.Background(), 1, 4, 200_000_000))
	stats, err := escrowClient.GetProjectStats(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, escrow.Stats{NftsSold: 4, NftPriceE8S: 200_000_000}, stats)
}

func TestHandler_RejectsBadMethodsAndParams(t *testing.T) {
	services, _, _ := setup(t)
	h := services.Handler(nil)
	ctx := context.Background()

	cases := []struct {
		method string
		params string
		code   int
	}{
		{method: "noDot", code: transport.ErrMethodNotFound},
		{method: "ledger.balance", code: transport.ErrMethodNotFound},
		{method: "backend.dropTables", code: transport.ErrMethodNotFound},
		{method: "backend.getProfile", params: `[]`, code: transport.ErrInvalidParams},
		{method: "backend.getProfile", params: `[1]`, code: transport.ErrInvalidParams},
		{method: "escrow.getProjectStats", params: `["1"]`, code: transport.ErrInvalidParams},
		{method: "backend.createProject", params: `[{"title":"x"}]`, code: transport.ErrInvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.method+tc.params, func(t *testing.T) {
			_, err := h.Handle(ctx, tc.method, json.RawMessage(tc.params))
			requireRPCCode(t, err, tc.code)
		})
	}
}

func TestHandler_InvalidProjectInput(t *testing.T) {
	_, client, _ := setup(t)

	_, err := client.CreateProject(as("alice"), project.NewProject{Title: "  ", Category: "art"})
	requireRPCCode(t, err, transport.ErrBadInputCode)
}

func TestHandler_CreateFirstProjectRejectedLeavesNoProfile(t *testing.T) {
	_, client, _ := setup(t)
	alice := as("alice")

	_, err := client.CreateFirstProject(alice,
		profile.NewProfile{FirstName: "Alice"},
		project.NewProject{Title: "", Category: "art", Goal: 10},
	)
	requireRPCCode(t, err, transport.ErrBadInputCode)

	_, err = client.GetMyProfile(alice)
	requireRPCCode(t, err, transport.ErrNotFoundCode)

	mine, err := client.GetMyProjects(alice)
	require.NoError(t, err)
	require.Empty(t, mine)
}
