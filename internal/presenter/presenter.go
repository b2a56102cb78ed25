// Package presenter turns cached backend queries into view state for pages.
// It holds no rendering logic; callers decide how to draw each view.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/identity"
)

const (
	featuredProjectsKey = "featured-projects"
	myProjectsKey       = "my-projects"
	anonymousKeyPart    = "anonymous"

	CreateProjectPath = "/create-a-project"
)

var (
	// ErrNoCache is returned when the context carries no fetch cache.
	ErrNoCache = errors.New("no fetch cache in context")
	// ErrLoginRequired is returned by actions that need a signed-in identity.
	ErrLoginRequired = errors.New("login required")
)

// ProjectLister lists featured projects.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]project.ProjectWithOwner, error)
}

// MyProjectsLister lists the caller's own projects.
type MyProjectsLister interface {
	GetMyProjects(ctx context.Context) ([]project.Project, error)
}

// ProjectCreator submits new projects.
type ProjectCreator interface {
	CreateFirstProject(ctx context.Context, p profile.NewProfile, proj project.NewProject) (*project.Project, error)
	CreateProject(ctx context.Context, proj project.NewProject) (*project.Project, error)
}

// StatsReader reads escrow sales stats.
type StatsReader interface {
	GetProjectStats(ctx context.Context, projectID uint64) (escrow.Stats, error)
}

// ManageProjectPath is the page for managing one project.
func ManageProjectPath(projectID string) string {
	return fmt.Sprintf("/manage-project?projectId=%s", url.QueryEscape(projectID))
}

func cacheFrom(ctx context.Context) (*fetch.Cache, error) {
	c, ok := fetch.FromContext(ctx)
	if !ok {
		return nil, ErrNoCache
	}
	return c, nil
}

// withCaller re-attaches the caller's identity to a fetch context, which
// derives from the cache rather than the subscriber.
func withCaller(ctx context.Context, id identity.Identity, ok bool) context.Context {
	if !ok {
		return ctx
	}
	return identity.WithIdentity(ctx, id)
}
