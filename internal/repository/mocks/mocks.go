package mocks

import (
	"context"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

var (
	_ profile.Repository = (*ProfileRepository)(nil)
	_ project.Repository = (*ProjectRepository)(nil)
	_ escrow.Repository  = (*StatsRepository)(nil)
)

// ProfileRepository is a mock for profile.Repository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*profile.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProfileRepository) Search(ctx context.Context, query string) ([]profile.Profile, error) {
	args := m.Called(ctx, query)
	if list, ok := args.Get(0).([]profile.Profile); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByOwner(ctx context.Context, owner string) ([]project.Project, error) {
	args := m.Called(ctx, owner)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// StatsRepository is a mock for escrow.Repository.
type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) Get(ctx context.Context, projectID uint64) (*escrow.Stats, error) {
	args := m.Called(ctx, projectID)
	if stats, ok := args.Get(0).(*escrow.Stats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) AddSale(ctx context.Context, projectID, count, priceE8S uint64) error {
	args := m.Called(ctx, projectID, count, priceE8S)
	return args.Error(0)
}
