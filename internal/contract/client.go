package contract

import (
	"context"
	"log/slog"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
)

// BackendClient is the typed client for the backend service.
type BackendClient struct {
	inv *Invoker
}

// NewBackendClient creates a backend client over a transport.
func NewBackendClient(transport Transport, logger *slog.Logger) *BackendClient {
	return &BackendClient{inv: NewInvoker(Backend, transport, logger)}
}

// Invoker exposes the underlying invoker for untyped calls.
func (c *BackendClient) Invoker() *Invoker { return c.inv }

func (c *BackendClient) CreateFirstProject(ctx context.Context, p profile.NewProfile, proj project.NewProject) (*project.Project, error) {
	var out project.Project
	if err := c.inv.Invoke(ctx, OpCreateFirstProject, &out, p, proj); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) CreateProfile(ctx context.Context, p profile.NewProfile) error {
	return c.inv.Invoke(ctx, OpCreateProfile, nil, p)
}

func (c *BackendClient) CreateProject(ctx context.Context, proj project.NewProject) (*project.Project, error) {
	var out project.Project
	if err := c.inv.Invoke(ctx, OpCreateProject, &out, proj); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) GetMyProfile(ctx context.Context) (*profile.Profile, error) {
	var out profile.Profile
	if err := c.inv.Invoke(ctx, OpGetMyProfile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) GetMyProjects(ctx context.Context) ([]project.Project, error) {
	var out []project.Project
	if err := c.inv.Invoke(ctx, OpGetMyProjects, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *BackendClient) GetOwnID(ctx context.Context) (string, error) {
	var out string
	err := c.inv.Invoke(ctx, OpGetOwnID, &out)
	return out, err
}

func (c *BackendClient) GetOwnIDText(ctx context.Context) (string, error) {
	var out string
	err := c.inv.Invoke(ctx, OpGetOwnIDText, &out)
	return out, err
}

func (c *BackendClient) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	var out profile.Profile
	if err := c.inv.Invoke(ctx, OpGetProfile, &out, userID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) GetProjects(ctx context.Context, userID string) ([]project.Project, error) {
	var out []project.Project
	if err := c.inv.Invoke(ctx, OpGetProjects, &out, userID); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *BackendClient) Greet(ctx context.Context) (string, error) {
	var out string
	err := c.inv.Invoke(ctx, OpGreet, &out)
	return out, err
}

func (c *BackendClient) Healthcheck(ctx context.Context) (bool, error) {
	var out bool
	err := c.inv.Invoke(ctx, OpHealthcheck, &out)
	return out, err
}

func (c *BackendClient) ListProjects(ctx context.Context) ([]project.ProjectWithOwner, error) {
	var out []project.ProjectWithOwner
	if err := c.inv.Invoke(ctx, OpListProjects, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *BackendClient) SearchProfiles(ctx context.Context, query string) ([]profile.Profile, error) {
	var out []profile.Profile
	if err := c.inv.Invoke(ctx, OpSearchProfiles, &out, query); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *BackendClient) UpdateProfile(ctx context.Context, p profile.Profile) error {
	return c.inv.Invoke(ctx, OpUpdateProfile, nil, p)
}

// EscrowClient is the typed client for the escrow service.
type EscrowClient struct {
	inv *Invoker
}

// NewEscrowClient creates an escrow client over a transport.
func NewEscrowClient(transport Transport, logger *slog.Logger) *EscrowClient {
	return &EscrowClient{inv: NewInvoker(Escrow, transport, logger)}
}

func (c *EscrowClient) GetProjectStats(ctx context.Context, projectID uint64) (escrow.Stats, error) {
	var out escrow.Stats
	err := c.inv.Invoke(ctx, OpGetProjectStats, &out, projectID)
	return out, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
