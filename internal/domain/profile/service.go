package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/crowdfund/internal/repository"
)

// Service handles profile operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Create creates the profile owned by the given principal.
func (s *Service) Create(ctx context.Context, owner string, req NewProfile) (*Profile, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrInvalidInput
	}

	p := &Profile{
		ID:        owner,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Img:       req.Img,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	s.logger.Info("profile created", "principal", owner)
	return p, nil
}

// Get fetches a profile by principal.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// Update replaces the caller's profile. Callers may only update their own.
func (s *Service) Update(ctx context.Context, caller string, p Profile) error {
	if p.ID != caller {
		return ErrForbidden
	}
	if err := s.repo.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// Search returns profiles whose name contains the query, case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]Profile, error) {
	profiles, err := s.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	return profiles, nil
}
