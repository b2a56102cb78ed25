package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	owners OwnerLookup
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, owners OwnerLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, owners: owners, logger: logger}
}

// Validate reports ErrInvalidInput when Create would reject req for owner.
func (s *Service) Validate(owner string, req NewProject) error {
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(req.Title) == "" {
		return ErrInvalidInput
	}
	if req.Goal < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Create launches a new project owned by the given principal.
func (s *Service) Create(ctx context.Context, owner string, req NewProject) (*Project, error) {
	if err := s.Validate(owner, req); err != nil {
		return nil, err
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	proj := &Project{
		Owner:      owner,
		NewProject: req,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "owner", owner)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// ListByOwner returns the projects owned by a principal.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]Project, error) {
	projects, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

// ListWithOwners returns every project paired with its owner profile.
// Owners without a profile are reported with only their principal set.
func (s *Service) ListWithOwners(ctx context.Context) ([]ProjectWithOwner, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	owners := make(map[string]profile.Profile)
	result := make([]ProjectWithOwner, 0, len(projects))
	for _, proj := range projects {
		owner, ok := owners[proj.Owner]
		if !ok {
			p, err := s.owners.Get(ctx, proj.Owner)
			switch {
			case err == nil:
				owner = *p
			case errors.Is(err, repository.ErrNotFound), errors.Is(err, profile.ErrProfileNotFound):
				owner = profile.Profile{ID: proj.Owner}
			default:
				return nil, fmt.Errorf("resolving owner %s: %w", proj.Owner, err)
			}
			owners[proj.Owner] = owner
		}
		result = append(result, ProjectWithOwner{Project: proj, Owner: owner})
	}
	return result, nil
}
