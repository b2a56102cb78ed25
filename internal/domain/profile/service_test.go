package profile_test

import (
	"context"
	"testing"

	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/repository"
	"github.com/rpggio/crowdfund/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Create(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProfileRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*profile.Profile")).Return(nil)

	svc := profile.NewService(repo, nil)
	p, err := svc.Create(ctx, "alice", profile.NewProfile{FirstName: "Alice", LastName: "Liddell"})
	require.NoError(t, err)
	require.Equal(t, "alice", p.ID)
	require.Equal(t, "Alice Liddell", p.DisplayName())
}

func TestProfileService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProfileRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := profile.NewService(repo, nil)
	_, err := svc.Create(ctx, "alice", profile.NewProfile{FirstName: "Alice"})
	require.ErrorIs(t, err, profile.ErrProfileExists)
}

func TestProfileService_UpdateOtherUser(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProfileRepository{}
	svc := profile.NewService(repo, nil)

	err := svc.Update(ctx, "alice", profile.Profile{ID: "bob"})
	require.ErrorIs(t, err, profile.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProfileService_GetNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProfileRepository{}
	repo.On("Get", ctx, "ghost").Return(nil, repository.ErrNotFound)

	svc := profile.NewService(repo, nil)
	_, err := svc.Get(ctx, "ghost")
	require.ErrorIs(t, err, profile.ErrProfileNotFound)
}
