package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/civicmatch/internal/domain/dashboard"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/search"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/stretchr/testify/require"
)

type sourceStub struct {
	projects []project.Project
	err      error
}

func (s sourceStub) ListForSearch(context.Context) ([]project.Project, error) {
	return s.projects, s.err
}

type telemetryStub struct {
	historyFn func(context.Context, string, int) ([]telemetry.SearchHistory, error)
	popularFn func(context.Context, int) ([]telemetry.PopularSearch, error)
}

func (s telemetryStub) History(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error) {
	return s.historyFn(ctx, userID, limit)
}
func (s telemetryStub) Popular(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	return s.popularFn(ctx, limit)
}
func (s telemetryStub) Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	return s.popularFn(ctx, limit)
}

type clickStub struct {
	mu     sync.Mutex
	events []telemetry.ClickEvent
}

func (c *clickStub) DispatchClick(ev telemetry.ClickEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

type dashboardStub struct {
	refreshFn func(context.Context, string) (*dashboard.Snapshot, error)
	teamFn    func(context.Context, string) (*dashboard.TeamAnalytics, error)
}

func (d dashboardStub) Refresh(ctx context.Context, orgID string) (*dashboard.Snapshot, error) {
	return d.refreshFn(ctx, orgID)
}
func (d dashboardStub) GetTeamAnalytics(ctx context.Context, orgID string) (*dashboard.TeamAnalytics, error) {
	return d.teamFn(ctx, orgID)
}

func testProjects() []project.Project {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []project.Project{
		{ID: "p1", Title: "Food Bank Inventory", Status: project.StatusOpen, TechnologyStack: []string{"Go", "PostgreSQL"}, CreatedAt: base},
		{ID: "p2", Title: "Tutoring Scheduler", Status: project.StatusOpen, TechnologyStack: []string{"React"}, CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Title: "Archived Food Map", Status: project.StatusCompleted, TechnologyStack: []string{"Go"}, CreatedAt: base.Add(2 * time.Hour)},
	}
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeResult(t *testing.T, res *sdkmcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), out))
}

func TestTools_Listed(t *testing.T) {
	cs := connect(t, Config{TransportMode: "stdio"})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"search_projects", "get_search_suggestions", "get_popular_searches", "get_search_history",
		"record_search_click", "get_organization_dashboard", "get_team_analytics",
	}, names)
}

func TestSearchProjects(t *testing.T) {
	svc := search.NewService(sourceStub{projects: testProjects()}, nil, nil, search.Options{}, nil)
	cs := connect(t, Config{
		TransportMode: "stdio",
		StdioViewer:   profile.Viewer{ID: "dev-1", Role: profile.RoleDeveloper},
		Services:      Services{Search: svc},
	})

	res := callTool(t, cs, "search_projects", map[string]any{
		"query":      "food",
		"filters":    map[string]any{"technology_stack": []string{"go"}},
		"sort_by":    "title",
		"sort_order": "asc",
	})
	var resp search.Response
	decodeResult(t, res, &resp)
	require.Equal(t, 1, resp.TotalCount)
	require.Equal(t, "p1", resp.Projects[0].ID)

	res = callTool(t, cs, "search_projects", map[string]any{
		"filters": map[string]any{"status": []string{"completed"}},
	})
	decodeResult(t, res, &resp)
	require.Equal(t, 1, resp.TotalCount)
	require.Equal(t, "p3", resp.Projects[0].ID)
}

func TestSearchProjects_StorageFailure(t *testing.T) {
	svc := search.NewService(sourceStub{err: errors.New("dial tcp: refused")}, nil, nil, search.Options{}, nil)
	cs := connect(t, Config{TransportMode: "stdio", Services: Services{Search: svc}})

	res := callTool(t, cs, "search_projects", map[string]any{"query": "go"})
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "INTERNAL")
	require.NotContains(t, resultText(t, res), "refused")
}

func TestGetSearchSuggestions(t *testing.T) {
	popular := telemetryStub{popularFn: func(context.Context, int) ([]telemetry.PopularSearch, error) {
		return []telemetry.PopularSearch{{Term: "food pantry", SearchCount: 9}}, nil
	}}
	svc := search.NewService(sourceStub{projects: testProjects()}, popular, nil, search.Options{}, nil)
	cs := connect(t, Config{TransportMode: "stdio", Services: Services{Search: svc}})

	res := callTool(t, cs, "get_search_suggestions", map[string]any{"query": "food", "limit": 5})
	var resp SuggestionsResponse
	decodeResult(t, res, &resp)
	require.Contains(t, resp.Suggestions, "food pantry")
	require.Contains(t, resp.Suggestions, "Food Bank Inventory")
	require.NotContains(t, resp.Suggestions, "Archived Food Map")
}

func TestGetPopularSearches(t *testing.T) {
	var gotLimit int
	tel := telemetryStub{popularFn: func(_ context.Context, limit int) ([]telemetry.PopularSearch, error) {
		gotLimit = limit
		return nil, nil
	}}
	cs := connect(t, Config{TransportMode: "stdio", Services: Services{Telemetry: tel}})

	res := callTool(t, cs, "get_popular_searches", map[string]any{"limit": 7})
	var resp PopularSearchesResponse
	decodeResult(t, res, &resp)
	require.Equal(t, 7, gotLimit)
	require.NotNil(t, resp.Searches)
	require.Empty(t, resp.Searches)
}

func TestGetSearchHistory(t *testing.T) {
	tel := telemetryStub{historyFn: func(_ context.Context, userID string, _ int) ([]telemetry.SearchHistory, error) {
		return []telemetry.SearchHistory{{ID: "h1", UserID: userID, SearchTerm: "react"}}, nil
	}}

	anon := connect(t, Config{TransportMode: "stdio", Services: Services{Telemetry: tel}})
	res := callTool(t, anon, "get_search_history", map[string]any{})
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "AUTH_REQUIRED")

	dev := connect(t, Config{
		TransportMode: "stdio",
		StdioViewer:   profile.Viewer{ID: "dev-1", Role: profile.RoleDeveloper},
		Services:      Services{Telemetry: tel},
	})
	res = callTool(t, dev, "get_search_history", map[string]any{})
	var resp SearchHistoryResponse
	decodeResult(t, res, &resp)
	require.Len(t, resp.History, 1)
	require.Equal(t, "dev-1", resp.History[0].UserID)
}

func TestRecordSearchClick(t *testing.T) {
	clicks := &clickStub{}
	cs := connect(t, Config{
		TransportMode: "stdio",
		StdioViewer:   profile.Viewer{ID: "dev-1", Role: profile.RoleDeveloper},
		Services:      Services{Clicks: clicks},
	})

	res := callTool(t, cs, "record_search_click", map[string]any{
		"search_term": "food", "project_id": "p1", "position": 3, "result_count": 12,
	})
	var resp RecordClickResponse
	decodeResult(t, res, &resp)
	require.True(t, resp.Recorded)

	res = callTool(t, cs, "record_search_click", map[string]any{"project_id": "  "})
	require.True(t, res.IsError)

	require.Len(t, clicks.events, 1)
	require.Equal(t, telemetry.ClickEvent{
		UserID: "dev-1", Query: "food", ProjectID: "p1", Position: 3, ResultCount: 12,
	}, clicks.events[0])
}

func TestOrganizationDashboard(t *testing.T) {
	dash := dashboardStub{
		refreshFn: func(_ context.Context, orgID string) (*dashboard.Snapshot, error) {
			return &dashboard.Snapshot{Stats: dashboard.OrganizationStats{TotalProjects: 4, ActiveProjects: 3}}, nil
		},
		teamFn: func(context.Context, string) (*dashboard.TeamAnalytics, error) {
			return &dashboard.TeamAnalytics{TotalMembers: 2, AverageProjectsPerMember: 1.5, ProjectTeams: []dashboard.ProjectTeam{}}, nil
		},
	}
	cs := connect(t, Config{
		TransportMode: "stdio",
		StdioViewer:   profile.Viewer{ID: "org-1", Role: profile.RoleOrganization},
		Services:      Services{Dashboard: dash},
	})

	res := callTool(t, cs, "get_organization_dashboard", map[string]any{"organization_id": "org-2"})
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "FORBIDDEN")

	res = callTool(t, cs, "get_organization_dashboard", map[string]any{"organization_id": "org-1"})
	var snap dashboard.Snapshot
	decodeResult(t, res, &snap)
	require.Equal(t, 4, snap.Stats.TotalProjects)
	require.Equal(t, 3, snap.Stats.ActiveProjects)

	res = callTool(t, cs, "get_team_analytics", map[string]any{"organization_id": "org-1"})
	var analytics dashboard.TeamAnalytics
	decodeResult(t, res, &analytics)
	require.Equal(t, 2, analytics.TotalMembers)
	require.Equal(t, 1.5, analytics.AverageProjectsPerMember)
}

func TestDocResources(t *testing.T) {
	cs := connect(t, Config{TransportMode: "stdio"})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "civicmatch://docs/search"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "technology_stack")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("boom")))
	require.Equal(t, "INVALID_INPUT", MapError(dashboard.ErrInvalidInput).Code)

	err := toolError(errors.New("pq: relation missing"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INTERNAL", apiErr.Code)
}
