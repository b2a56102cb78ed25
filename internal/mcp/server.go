package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
)

// Backend is the read side of the backend contract used by the tools.
type Backend interface {
	ListProjects(ctx context.Context) ([]project.ProjectWithOwner, error)
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
	SearchProfiles(ctx context.Context, query string) ([]profile.Profile, error)
	GetOwnID(ctx context.Context) (string, error)
	Healthcheck(ctx context.Context) (bool, error)
}

// Escrow reads project sale stats.
type Escrow interface {
	GetProjectStats(ctx context.Context, projectID uint64) (escrow.Stats, error)
}

// Config contains server configuration.
type Config struct {
	Backend       Backend
	Escrow        Escrow
	Resolver      PrincipalResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "crowdfund",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and always anonymous.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled && cfg.Resolver != nil {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(anonymousMiddleware())
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Backend, cfg.Escrow)

	return server
}
