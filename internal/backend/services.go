package backend

import (
	"log/slog"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/sqlite"
)

// Services bundles the domain services behind the handler.
type Services struct {
	Profiles *profile.Service
	Projects *project.Service
	Stats    *escrow.Service
}

// NewServices wires the domain services to SQLite repositories.
func NewServices(db *sqlite.DB, logger *slog.Logger) *Services {
	profiles := profile.NewService(sqlite.NewProfileRepository(db), logger)
	return &Services{
		Profiles: profiles,
		Projects: project.NewService(sqlite.NewProjectRepository(db), profiles, logger),
		Stats:    escrow.NewService(sqlite.NewStatsRepository(db), logger),
	}
}

// Handler returns a handler over the services.
func (s *Services) Handler(logger *slog.Logger) *Handler {
	return NewHandler(s.Profiles, s.Projects, s.Stats, logger)
}
