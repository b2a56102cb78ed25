package escrow

import "context"

// Repository provides persistence for project sale stats.
type Repository interface {
	Get(ctx context.Context, projectID uint64) (*Stats, error)
	AddSale(ctx context.Context, projectID, count, priceE8S uint64) error
}
