// Package app wires stores, domain services and transports from configuration.
package app

import (
	"context"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/civicmatch/internal/auth"
	"github.com/rpggio/civicmatch/internal/config"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/dashboard"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/search"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/mcp"
	"github.com/rpggio/civicmatch/internal/scheduler"
	"github.com/rpggio/civicmatch/internal/transport"
)

// App holds the services built from one configuration.
type App struct {
	Config       config.Config
	Stores       *Stores
	Profiles     *profile.Service
	Projects     *project.Service
	Applications *application.Service
	Activity     *activity.Service
	Search       *search.Service
	Telemetry    *telemetry.Service
	Recorder     *telemetry.Recorder
	Dashboard    *dashboard.Service
	Scheduler    *scheduler.Scheduler
	Tokens       *auth.Manager // nil when auth is disabled

	logger *slog.Logger
}

// New builds every service over stores.
func New(cfg config.Config, stores *Stores, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	recorder := telemetry.NewRecorder(telemetry.RecorderConfig{
		History:       stores.History,
		Popularity:    stores.Popularity,
		Analytics:     stores.Analytics,
		RatePerSecond: cfg.Telemetry.RatePerSecond,
		Burst:         cfg.Telemetry.Burst,
		Timeout:       cfg.Telemetry.Timeout,
	}, logger)
	telemetrySvc := telemetry.NewService(stores.History, stores.Popularity, logger)

	a := &App{
		Config:       cfg,
		Stores:       stores,
		Profiles:     profile.NewService(stores.Profiles, logger),
		Projects:     project.NewService(stores.Projects, stores.Applications, stores.Activities, logger),
		Applications: application.NewService(stores.Applications, stores.Projects, stores.Activities, logger),
		Activity:     activity.NewService(stores.Activities, logger),
		Search: search.NewService(stores.Projects, stores.Popularity, recorder, search.Options{
			DefaultLimit:    cfg.Search.DefaultLimit,
			MaxLimit:        cfg.Search.MaxLimit,
			SuggestionLimit: cfg.Search.SuggestionLimit,
		}, logger),
		Telemetry: telemetrySvc,
		Recorder:  recorder,
		Dashboard: dashboard.NewService(stores.Projects, stores.Applications, stores.Activities, logger),
		Scheduler: scheduler.New(telemetrySvc, cfg.History.Schedule, cfg.History.Retention, logger),
		logger:    logger,
	}

	if cfg.Auth.Enabled {
		tokens, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL)
		if err != nil {
			return nil, err
		}
		a.Tokens = tokens
	}
	return a, nil
}

// MCPServer builds the MCP server for the given transport mode.
func (a *App) MCPServer(mode string) *sdkmcp.Server {
	cfg := mcp.Config{
		Services: mcp.Services{
			Search:    a.Search,
			Telemetry: a.Telemetry,
			Clicks:    a.Recorder,
			Dashboard: a.Dashboard,
		},
		AuthEnabled:   a.Tokens != nil,
		TransportMode: mode,
		StdioViewer:   a.stdioViewer(),
		Logger:        a.logger,
	}
	if a.Tokens != nil {
		cfg.Resolver = a.Tokens
	}
	return mcp.NewServer(cfg)
}

// Handler returns the HTTP router with the REST API and MCP mounted. Dashboard
// streams end when ctx is canceled.
func (a *App) Handler(ctx context.Context) http.Handler {
	cfg := transport.Config{
		Services: transport.Services{
			Search:       a.Search,
			Telemetry:    a.Telemetry,
			Clicks:       a.Recorder,
			Profiles:     a.Profiles,
			Projects:     a.Projects,
			Applications: a.Applications,
			Activity:     a.Activity,
			Dashboard:    a.Dashboard,
		},
		MCP:            mcp.NewHTTPHandler(a.MCPServer("http")),
		StreamInterval: a.Config.Dashboard.StreamInterval,
		BaseContext:    ctx,
		Logger:         a.logger,
	}
	if a.Tokens != nil {
		cfg.Resolver = a.Tokens
	}
	return transport.NewServer(cfg)
}

// StartBackground starts the history retention job.
func (a *App) StartBackground(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Shutdown stops background work and waits for pending telemetry writes.
func (a *App) Shutdown() {
	a.Scheduler.Stop()
	a.Recorder.Wait()
}

func (a *App) stdioViewer() profile.Viewer {
	t := a.Config.Transport
	if t.StdioUserID == "" {
		return profile.Anonymous()
	}
	return profile.Viewer{ID: t.StdioUserID, Role: profile.ParseRole(t.StdioRole)}
}
