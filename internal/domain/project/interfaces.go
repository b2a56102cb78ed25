package project

import (
	"context"

	"github.com/rpggio/crowdfund/internal/domain/profile"
)

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ListByOwner(ctx context.Context, owner string) ([]Project, error)
}

// OwnerLookup resolves owner profiles for listings.
type OwnerLookup interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
}
