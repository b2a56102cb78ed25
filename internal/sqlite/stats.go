package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/repository"
)

// StatsRepository implements escrow.Repository for SQLite
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

var _ escrow.Repository = (*StatsRepository)(nil)

// Get retrieves the sale stats for a project
func (r *StatsRepository) Get(ctx context.Context, projectID uint64) (*escrow.Stats, error) {
	var sold, price int64
	err := r.db.QueryRowContext(ctx, `
		SELECT nfts_sold, nft_price_e8s
		FROM project_stats
		WHERE project_id = ?
	`, int64(projectID)).Scan(&sold, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project stats: %w", err)
	}
	return &escrow.Stats{NftsSold: uint64(sold), NftPriceE8S: uint64(price)}, nil
}

// AddSale adds count sold NFTs to a project and records the latest price.
func (r *StatsRepository) AddSale(ctx context.Context, projectID, count, priceE8S uint64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO project_stats (project_id, nfts_sold, nft_price_e8s)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			nfts_sold = nfts_sold + excluded.nfts_sold,
			nft_price_e8s = excluded.nft_price_e8s,
			modified_at = CURRENT_TIMESTAMP
	`, int64(projectID), int64(count), int64(priceE8S))
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}
