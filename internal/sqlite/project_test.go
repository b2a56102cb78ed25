package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/repository"
	"github.com/stretchr/testify/require"
)

func newProject(owner, title string) *project.Project {
	return &project.Project{
		Owner: owner,
		NewProject: project.NewProject{
			Title:       title,
			Description: "desc",
			Category:    "art",
			Goal:        12.5,
			NFTVolume:   100,
			Tags:        []string{"green", "space"},
			WalletID:    "wallet",
			TwitterLink: "https://x.com/" + owner,
		},
	}
}

func TestProjectRepository_CreateAssignsSequentialIDs(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	first := newProject("alice", "Moon Garden")
	second := newProject("bob", "Sea Glass")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.Equal(t, "1", first.ID)
	require.Equal(t, "2", second.ID)

	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, first, got)
}

func TestProjectRepository_Get(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := newProject("alice", "Moon Garden")
	proj.Tags = nil
	require.NoError(t, repo.Create(ctx, proj))

	got, err := repo.Get(ctx, proj.ID)
	require.NoError(t, err)
	require.Equal(t, []string{}, got.Tags)
	require.Nil(t, got.CoverImg)

	_, err = repo.Get(ctx, "99")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Get(ctx, "not-a-number")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	require.NoError(t, repo.Create(ctx, newProject("alice", "A1")))
	require.NoError(t, repo.Create(ctx, newProject("bob", "B1")))
	require.NoError(t, repo.Create(ctx, newProject("alice", "A2")))

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "A1", mine[0].Title)
	require.Equal(t, "A2", mine[1].Title)
}
