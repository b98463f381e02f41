package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// registerTools adds every tool. Outputs are typed as any so no output schema
// is inferred; the SDK returns them as structured content plus JSON text.
func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_projects",
		Description: "Search volunteer projects with optional filters, sorting and paging",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchProjectsParams) (*sdkmcp.CallToolResult, any, error) {
		req := svc.Search.Normalize(in.wire())
		resp, err := svc.Search.Search(ctx, getViewer(ctx), req, getSessionID(ctx))
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_search_suggestions",
		Description: "Suggest completions for a partial search from popular terms, project titles and technologies",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetSuggestionsParams) (*sdkmcp.CallToolResult, any, error) {
		suggestions, err := svc.Search.Suggestions(ctx, getViewer(ctx), in.Query, in.Limit)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, SuggestionsResponse{Suggestions: suggestions}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_popular_searches",
		Description: "List the most searched terms, most frequent first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetPopularSearchesParams) (*sdkmcp.CallToolResult, any, error) {
		terms, err := svc.Telemetry.Popular(ctx, in.Limit)
		if err != nil {
			return nil, nil, toolError(err)
		}
		if terms == nil {
			terms = []telemetry.PopularSearch{}
		}
		return nil, PopularSearchesResponse{Searches: terms}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_search_history",
		Description: "List the caller's recent searches, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetSearchHistoryParams) (*sdkmcp.CallToolResult, any, error) {
		viewer := getViewer(ctx)
		if viewer.IsAnonymous() {
			return nil, nil, toolError(errAuthRequired)
		}
		entries, err := svc.Telemetry.History(ctx, viewer.ID, in.Limit)
		if err != nil {
			return nil, nil, toolError(err)
		}
		if entries == nil {
			entries = []telemetry.SearchHistory{}
		}
		return nil, SearchHistoryResponse{History: entries}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "record_search_click",
		Description: "Record that a search result was opened",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordSearchClickParams) (*sdkmcp.CallToolResult, any, error) {
		if strings.TrimSpace(in.ProjectID) == "" || in.Position < 0 {
			return nil, nil, toolError(telemetry.ErrInvalidInput)
		}
		viewer := getViewer(ctx)
		ev := telemetry.ClickEvent{
			Query:       in.SearchTerm,
			ProjectID:   in.ProjectID,
			Position:    in.Position,
			ResultCount: in.ResultCount,
			SessionID:   getSessionID(ctx),
		}
		if !viewer.IsAnonymous() {
			ev.UserID = viewer.ID
		}
		svc.Clicks.DispatchClick(ev)
		return nil, RecordClickResponse{Recorded: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_organization_dashboard",
		Description: "Build the caller organization's dashboard: stats, projects, applications, team analytics and recent activity",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in OrganizationParams) (*sdkmcp.CallToolResult, any, error) {
		if err := requireOrganization(getViewer(ctx), in.OrganizationID); err != nil {
			return nil, nil, toolError(err)
		}
		snap, err := svc.Dashboard.Refresh(ctx, in.OrganizationID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, snap, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_team_analytics",
		Description: "Summarize accepted team members across the caller organization's projects",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in OrganizationParams) (*sdkmcp.CallToolResult, any, error) {
		if err := requireOrganization(getViewer(ctx), in.OrganizationID); err != nil {
			return nil, nil, toolError(err)
		}
		analytics, err := svc.Dashboard.GetTeamAnalytics(ctx, in.OrganizationID)
		if err != nil {
			return nil, nil, toolError(err)
		}
		return nil, analytics, nil
	})
}

func requireOrganization(viewer profile.Viewer, organizationID string) error {
	if viewer.IsAnonymous() {
		return errAuthRequired
	}
	if viewer.Role != profile.RoleOrganization || viewer.ID != organizationID {
		return errNotOwner
	}
	return nil
}
