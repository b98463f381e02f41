package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/civicmatch/internal/domain/dashboard"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/search"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// SearchService defines search operations needed by MCP.
type SearchService interface {
	Normalize(w search.WireRequest) search.Request
	Search(ctx context.Context, viewer profile.Viewer, req search.Request, sessionID string) (*search.Response, error)
	Suggestions(ctx context.Context, viewer profile.Viewer, input string, limit int) ([]string, error)
}

// TelemetryService defines history and popularity reads needed by MCP.
type TelemetryService interface {
	History(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error)
	Popular(ctx context.Context, limit int) ([]telemetry.PopularSearch, error)
}

// ClickRecorder accepts result clicks without blocking.
type ClickRecorder interface {
	DispatchClick(ev telemetry.ClickEvent)
}

// DashboardService defines dashboard reads needed by MCP.
type DashboardService interface {
	Refresh(ctx context.Context, organizationID string) (*dashboard.Snapshot, error)
	GetTeamAnalytics(ctx context.Context, organizationID string) (*dashboard.TeamAnalytics, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Search    SearchService
	Telemetry TelemetryService
	Clicks    ClickRecorder
	Dashboard DashboardService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      ViewerResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	// StdioViewer is the identity used when tokens are not checked.
	StdioViewer profile.Viewer
	Logger      *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "civicmatch",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only; tokens are checked over HTTP when auth is enabled.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.StdioViewer))
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
