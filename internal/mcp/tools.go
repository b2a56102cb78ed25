package mcp

import (
	"context"
	"strconv"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/identity"
)

// ProjectSummary is the tool-facing view of a listed project.
type ProjectSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Goal        float64  `json:"goal"`
	NFTVolume   uint64   `json:"nft_volume"`
	Tags        []string `json:"tags"`
	Owner       string   `json:"owner"`
	OwnerName   string   `json:"owner_name"`
}

// ProfileSummary is the tool-facing view of a profile. Images are omitted.
type ProfileSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio"`
}

type ListProjectsInput struct{}

type ListProjectsOutput struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectStatsInput struct {
	ProjectID string `json:"project_id" jsonschema:"numeric id of the project"`
}

type ProjectStatsOutput struct {
	ProjectID   string `json:"project_id"`
	NftsSold    uint64 `json:"nfts_sold"`
	NftPriceE8S uint64 `json:"nft_price_e8s"`
}

type GetProfileInput struct {
	UserID string `json:"user_id" jsonschema:"principal that owns the profile"`
}

type SearchProfilesInput struct {
	Query string `json:"query" jsonschema:"case-insensitive text matched against first and last names"`
}

type SearchProfilesOutput struct {
	Profiles []ProfileSummary `json:"profiles"`
}

type WhoAmIInput struct{}

type WhoAmIOutput struct {
	Principal     string `json:"principal"`
	Authenticated bool   `json:"authenticated"`
}

type HealthcheckInput struct{}

type HealthcheckOutput struct {
	Healthy bool `json:"healthy"`
}

func registerTools(server *sdkmcp.Server, backend Backend, escrow Escrow) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List every launched project with its owner",
	}, listProjectsHandler(backend))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project_stats",
		Description: "Get NFT sale stats for a project",
	}, projectStatsHandler(escrow))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_profile",
		Description: "Get a user profile by principal",
	}, getProfileHandler(backend))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_profiles",
		Description: "Search profiles by name",
	}, searchProfilesHandler(backend))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Report the principal the backend sees for this connection",
	}, whoAmIHandler(backend))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "healthcheck",
		Description: "Check that the backend is reachable",
	}, healthcheckHandler(backend))
}

func listProjectsHandler(backend Backend) sdkmcp.ToolHandlerFor[ListProjectsInput, ListProjectsOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListProjectsInput) (*sdkmcp.CallToolResult, ListProjectsOutput, error) {
		projects, err := backend.ListProjects(ctx)
		if err != nil {
			return nil, ListProjectsOutput{}, MapError(err)
		}
		out := ListProjectsOutput{Projects: make([]ProjectSummary, 0, len(projects))}
		for _, p := range projects {
			out.Projects = append(out.Projects, projectSummary(p))
		}
		return nil, out, nil
	}
}

func projectStatsHandler(escrow Escrow) sdkmcp.ToolHandlerFor[ProjectStatsInput, ProjectStatsOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectStatsInput) (*sdkmcp.CallToolResult, ProjectStatsOutput, error) {
		id, err := strconv.ParseUint(in.ProjectID, 10, 64)
		if err != nil {
			return nil, ProjectStatsOutput{}, &APIError{Code: "INVALID_ARGUMENT", Message: "project_id must be a non-negative integer"}
		}
		stats, err := escrow.GetProjectStats(ctx, id)
		if err != nil {
			return nil, ProjectStatsOutput{}, MapError(err)
		}
		return nil, ProjectStatsOutput{
			ProjectID:   in.ProjectID,
			NftsSold:    stats.NftsSold,
			NftPriceE8S: stats.NftPriceE8S,
		}, nil
	}
}

func getProfileHandler(backend Backend) sdkmcp.ToolHandlerFor[GetProfileInput, ProfileSummary] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProfileInput) (*sdkmcp.CallToolResult, ProfileSummary, error) {
		p, err := backend.GetProfile(ctx, in.UserID)
		if err != nil {
			return nil, ProfileSummary{}, MapError(err)
		}
		return nil, profileSummary(*p), nil
	}
}

func searchProfilesHandler(backend Backend) sdkmcp.ToolHandlerFor[SearchProfilesInput, SearchProfilesOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchProfilesInput) (*sdkmcp.CallToolResult, SearchProfilesOutput, error) {
		profiles, err := backend.SearchProfiles(ctx, in.Query)
		if err != nil {
			return nil, SearchProfilesOutput{}, MapError(err)
		}
		out := SearchProfilesOutput{Profiles: make([]ProfileSummary, 0, len(profiles))}
		for _, p := range profiles {
			out.Profiles = append(out.Profiles, profileSummary(p))
		}
		return nil, out, nil
	}
}

func whoAmIHandler(backend Backend) sdkmcp.ToolHandlerFor[WhoAmIInput, WhoAmIOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ WhoAmIInput) (*sdkmcp.CallToolResult, WhoAmIOutput, error) {
		principal, err := backend.GetOwnID(ctx)
		if err != nil {
			return nil, WhoAmIOutput{}, MapError(err)
		}
		return nil, WhoAmIOutput{
			Principal:     principal,
			Authenticated: principal != identity.AnonymousPrincipal,
		}, nil
	}
}

func healthcheckHandler(backend Backend) sdkmcp.ToolHandlerFor[HealthcheckInput, HealthcheckOutput] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ HealthcheckInput) (*sdkmcp.CallToolResult, HealthcheckOutput, error) {
		ok, err := backend.Healthcheck(ctx)
		if err != nil {
			return nil, HealthcheckOutput{}, MapError(err)
		}
		return nil, HealthcheckOutput{Healthy: ok}, nil
	}
}

func projectSummary(p project.ProjectWithOwner) ProjectSummary {
	tags := p.Project.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProjectSummary{
		ID:          p.Project.ID,
		Title:       p.Project.Title,
		Description: p.Project.Description,
		Category:    p.Project.Category,
		Goal:        p.Project.Goal,
		NFTVolume:   p.Project.NFTVolume,
		Tags:        tags,
		Owner:       p.Project.Owner,
		OwnerName:   p.Owner.DisplayName(),
	}
}

func profileSummary(p profile.Profile) ProfileSummary {
	return ProfileSummary{
		ID:          p.ID,
		DisplayName: p.DisplayName(),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Bio:         p.Bio,
	}
}
