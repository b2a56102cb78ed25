package profile

import "context"

// Repository provides persistence for profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Search(ctx context.Context, query string) ([]Profile, error)
}
