package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/crowdfund/internal/repository"
)

// Service tracks NFT sales per project.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new escrow service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// GetProjectStats returns the sale stats for a project.
func (s *Service) GetProjectStats(ctx context.Context, projectID uint64) (Stats, error) {
	stats, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Stats{}, ErrStatsNotFound
		}
		return Stats{}, fmt.Errorf("getting project stats: %w", err)
	}
	return *stats, nil
}

// RecordSale adds sold NFTs to a project and sets the current unit price.
func (s *Service) RecordSale(ctx context.Context, projectID, count, priceE8S uint64) error {
	if count == 0 {
		return ErrInvalidInput
	}
	if err := s.repo.AddSale(ctx, projectID, count, priceE8S); err != nil {
		return fmt.Errorf("recording sale: %w", err)
	}
	s.logger.Info("nft sale recorded", "project_id", projectID, "count", count, "price_e8s", priceE8S)
	return nil
}
