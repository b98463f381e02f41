package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `civicmatch matches volunteer developers with nonprofit projects.

Tools:
- search_projects: free text plus filters, sorting and paging. Without a status filter developers
  see open and in_progress projects and everyone else sees open projects.
- get_search_suggestions / get_popular_searches: help phrase a query.
- record_search_click: call when the user opens a result, with the result's position.
- get_search_history: the signed-in caller's recent searches.
- get_organization_dashboard / get_team_analytics: for organization callers, about their own organization only.

Read civicmatch://docs/search for filter and sort details before building complex searches.
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
		URI:         "civicmatch://docs/search",
		Name:        "docs_search",
		Title:       "Search filters and sorting",
		Description: "Filter fields, accepted values, sort keys and paging rules for search_projects.",
		Content: `# Searching projects

## Query

` + "`query`" + ` is matched case-insensitively as a substring of the title, description,
requirements, organization name and each technology. An empty query matches every project.

## Filters

Every filter is optional. An omitted or empty filter does not restrict results.

| Field | Values |
|---|---|
| status | pending, open, in_progress, completed, paused |
| difficulty_level | beginner, intermediate, advanced |
| application_type | individual, team, both |
| technology_stack | any technology name; a project matches if it uses at least one |
| is_remote | true or false |
| date_range.start, date_range.end | RFC 3339 timestamp or YYYY-MM-DD; a plain end date includes the whole day |

Unknown values are ignored rather than rejected. Without a status filter, developers see
open and in_progress projects and every other caller sees open projects.

## Sorting

` + "`sort_by`" + `: relevance (newest first), created_at, deadline (projects without a deadline
always last), title (case-insensitive), popularity (current team size).
` + "`sort_order`" + `: asc or desc, default desc. Unknown values fall back to the defaults.

## Paging

` + "`page`" + ` starts at 1. ` + "`limit`" + ` defaults to 20 and is capped at 100. A page past the end
returns an empty list with the full total_count.
`,
	},
	{
		URI:         "civicmatch://docs/dashboard",
		Name:        "docs_dashboard",
		Title:       "Organization dashboard fields",
		Description: "How dashboard statistics and team analytics are computed.",
		Content: `# Organization dashboard

- activeProjects counts open and in_progress projects.
- acceptanceRate is accepted / total applications * 100, rounded to 2 decimals.
- averageResponseTime is the mean hours between submission and the last status change,
  over applications that are no longer pending, rounded to the nearest hour.
- totalTeamMembers counts distinct developers with at least one accepted application.
- teamAnalytics lists every project, including ones without members, and
  averageProjectsPerMember = accepted applications / distinct members.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
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
