package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/crowdfund/internal/contract"
)

const serverInstructions = `crowdfund exposes a read-only view of the NFT crowdfunding backend.

Core concepts:
- Profile: a user, keyed by principal. The anonymous principal is 2vxsx-fae.
- Project: a launched campaign with a numeric id, an owner principal, a goal and an NFT volume.
- Stats: NFT sales for a project from the escrow service. Projects with no sales have no stats.

Suggested workflow:
1) list_projects to browse campaigns and their owners.
2) get_project_stats(project_id) for sales of a single project.
3) get_profile / search_profiles to look up creators.
4) whoami to check which principal your connection runs as.

Docs:
- crowdfund://docs/contract (every backend and escrow operation with argument and result types)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "crowdfund://docs/contract",
		Name:        "docs_contract",
		Title:       "Service contract",
		Description: "Operations of the backend and escrow services with their argument types, result types and modes.",
		Content:     renderContract(contract.Backend, contract.Escrow),
	},
}

// renderContract renders the operation tables for services as markdown.
func renderContract(services ...*contract.Service) string {
	var b strings.Builder
	b.WriteString("# Service contract\n\n")
	b.WriteString("Query operations are cached and de-duplicated by clients. Call operations run once per invocation.\n")
	for _, svc := range services {
		fmt.Fprintf(&b, "\n## %s\n\n", svc.Name())
		b.WriteString("| Operation | Arguments | Returns | Mode |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, op := range svc.Operations() {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", op.Name, typeList(op.Args), typeList(op.Returns), op.Mode)
		}
	}
	return b.String()
}

func typeList(ts []contract.Type) string {
	if len(ts) == 0 {
		return "-"
	}
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
