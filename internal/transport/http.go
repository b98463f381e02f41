package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/dashboard"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/search"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/metrics"
)

const defaultActivityLimit = 20

// SearchService defines search operations needed over HTTP.
type SearchService interface {
	Normalize(w search.WireRequest) search.Request
	Search(ctx context.Context, viewer profile.Viewer, req search.Request, sessionID string) (*search.Response, error)
	Suggestions(ctx context.Context, viewer profile.Viewer, input string, limit int) ([]string, error)
}

// TelemetryService defines history and popularity reads.
type TelemetryService interface {
	History(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error)
	ClearHistory(ctx context.Context, userID string) (int64, error)
	Popular(ctx context.Context, limit int) ([]telemetry.PopularSearch, error)
}

// ClickRecorder accepts result clicks without blocking.
type ClickRecorder interface {
	DispatchClick(ev telemetry.ClickEvent)
}

// ProfileService defines profile operations.
type ProfileService interface {
	Upsert(ctx context.Context, viewer profile.Viewer, req profile.UpsertRequest) (*profile.Profile, error)
	Get(ctx context.Context, id string) (*profile.Profile, error)
}

// ProjectService defines project operations.
type ProjectService interface {
	Create(ctx context.Context, organizationID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]project.Project, error)
	UpdateStatus(ctx context.Context, actorID, projectID string, status project.Status) (*project.Project, error)
}

// ApplicationService defines application operations.
type ApplicationService interface {
	Apply(ctx context.Context, developerID, projectID, coverLetter string) (*application.Application, error)
	Accept(ctx context.Context, actorID, id string) (*application.Application, error)
	Reject(ctx context.Context, actorID, id string) (*application.Application, error)
	Remove(ctx context.Context, actorID, id string) (*application.Application, error)
	Withdraw(ctx context.Context, actorID, id string) (*application.Application, error)
	SetStatusManager(ctx context.Context, actorID, id string, grant bool) (*application.Application, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]application.Application, error)
	ListTeam(ctx context.Context, projectID string) ([]application.TeamMember, error)
}

// ActivityService defines team activity reads.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// DashboardService defines dashboard reads.
type DashboardService interface {
	Refresh(ctx context.Context, organizationID string) (*dashboard.Snapshot, error)
	GetOrganizationStats(ctx context.Context, organizationID string) (*dashboard.OrganizationStats, error)
	GetTeamAnalytics(ctx context.Context, organizationID string) (*dashboard.TeamAnalytics, error)
	GetDeveloperStats(ctx context.Context, developerID string) (*dashboard.DeveloperStats, error)
}

// Services contains all domain services served over HTTP.
type Services struct {
	Search       SearchService
	Telemetry    TelemetryService
	Clicks       ClickRecorder
	Profiles     ProfileService
	Projects     ProjectService
	Applications ApplicationService
	Activity     ActivityService
	Dashboard    DashboardService
}

// Config configures the HTTP server.
type Config struct {
	Services Services
	// Resolver verifies bearer tokens. When nil, identity headers are trusted.
	Resolver       ViewerResolver
	MCP            http.Handler
	StreamInterval time.Duration
	// BaseContext bounds long-lived connections such as the dashboard stream.
	// Cancel it when the server shuts down. Defaults to context.Background().
	BaseContext context.Context
	Logger      *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	svc            Services
	streamInterval time.Duration
	baseCtx        context.Context
	logger         *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.StreamInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	srv := &Server{svc: cfg.Services, streamInterval: interval, baseCtx: baseCtx, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	if cfg.Resolver != nil {
		r.Use(AuthMiddleware(cfg.Resolver))
	} else {
		r.Use(HeaderIdentityMiddleware)
	}
	r.Use(SessionMiddleware)

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	r.Get("/api/search", srv.handleSearchQuery)
	r.Post("/api/search", srv.handleSearchBody)
	r.Get("/api/search/suggestions", srv.handleSuggestions)
	r.Get("/api/search/popular", srv.handlePopular)
	r.Post("/api/search/click", srv.handleClick)
	r.Get("/api/projects", srv.handleListProjects)
	r.Get("/api/projects/{id}", srv.handleGetProject)
	r.Get("/api/projects/{id}/team", srv.handleTeam)
	r.Get("/api/projects/{id}/activity", srv.handleProjectActivity)
	r.Get("/api/profiles/{id}", srv.handleGetProfile)

	r.Group(func(r chi.Router) {
		r.Use(RequireViewer)

		r.Get("/api/search/history", srv.handleHistory)
		r.Delete("/api/search/history", srv.handleClearHistory)
		r.Put("/api/profiles/me", srv.handleUpsertProfile)
		r.Post("/api/projects", srv.handleCreateProject)
		r.Patch("/api/projects/{id}/status", srv.handleProjectStatus)
		r.Post("/api/projects/{id}/applications", srv.handleApply)
		r.Get("/api/applications", srv.handleMyApplications)
		r.Post("/api/applications/{id}/{action}", srv.handleApplicationAction)
		r.Get("/api/organizations/{id}/dashboard", srv.handleDashboard)
		r.Get("/api/organizations/{id}/dashboard/stream", srv.handleDashboardStream)
		r.Get("/api/organizations/{id}/stats", srv.handleOrganizationStats)
		r.Get("/api/organizations/{id}/team-analytics", srv.handleTeamAnalytics)
		r.Get("/api/developers/{id}/stats", srv.handleDeveloperStats)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	s.runSearch(w, r, search.ParseQuery(r.URL.Query(), s.logger))
}

func (s *Server) handleSearchBody(w http.ResponseWriter, r *http.Request) {
	var wire search.WireRequest
	if err := decodeJSON(w, r, &wire); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, wire)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, wire search.WireRequest) {
	sessionID, _ := SessionIDFromContext(r.Context())
	resp, err := s.svc.Search.Search(r.Context(), ViewerFromContext(r.Context()), s.svc.Search.Normalize(wire), sessionID)
	if err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			return
		}
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("q")
	suggestions, err := s.svc.Search.Suggestions(r.Context(), ViewerFromContext(r.Context()), input, intQuery(r, "limit"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	terms, err := s.svc.Telemetry.Popular(r.Context(), intQuery(r, "limit"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if terms == nil {
		terms = []telemetry.PopularSearch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": terms})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	entries, err := s.svc.Telemetry.History(r.Context(), viewer.ID, intQuery(r, "limit"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if entries == nil {
		entries = []telemetry.SearchHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	n, err := s.svc.Telemetry.ClearHistory(r.Context(), viewer.ID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var ev telemetry.ClickEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(ev.ProjectID) == "" || ev.Position < 0 {
		writeError(w, http.StatusBadRequest, "clicked_project_id and a non-negative click_position are required")
		return
	}
	viewer := ViewerFromContext(r.Context())
	if !viewer.IsAnonymous() {
		ev.UserID = viewer.ID
	}
	if ev.SessionID == "" {
		ev.SessionID, _ = SessionIDFromContext(r.Context())
	}
	s.svc.Clicks.DispatchClick(ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profile.UpsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.svc.Profiles.Upsert(r.Context(), ViewerFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	if viewer.Role != profile.RoleOrganization {
		writeError(w, http.StatusForbidden, "only organizations can create projects")
		return
	}
	var req project.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.svc.Projects.Create(r.Context(), viewer.ID, req)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("organization_id")
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "organization_id is required")
		return
	}
	projects, err := s.svc.Projects.ListByOrganization(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := project.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	viewer := ViewerFromContext(r.Context())
	p, err := s.svc.Projects.UpdateStatus(r.Context(), viewer.ID, chi.URLParam(r, "id"), status)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Applications.ListTeam(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if members == nil {
		members = []application.TeamMember{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleProjectActivity(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit")
	if limit == 0 {
		limit = defaultActivityLimit
	}
	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), activity.ListOptions{
		ProjectID: chi.URLParam(r, "id"),
		Limit:     limit,
		Offset:    intQuery(r, "offset"),
	})
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	if viewer.Role != profile.RoleDeveloper {
		writeError(w, http.StatusForbidden, "only developers can apply to projects")
		return
	}
	var body struct {
		CoverLetter string `json:"cover_letter"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	app, err := s.svc.Applications.Apply(r.Context(), viewer.ID, chi.URLParam(r, "id"), body.CoverLetter)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	apps, err := s.svc.Applications.ListByDeveloper(r.Context(), viewer.ID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	if apps == nil {
		apps = []application.Application{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (s *Server) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	actorID := ViewerFromContext(r.Context()).ID
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	apps := s.svc.Applications

	var (
		app *application.Application
		err error
	)
	switch chi.URLParam(r, "action") {
	case "accept":
		app, err = apps.Accept(ctx, actorID, id)
	case "reject":
		app, err = apps.Reject(ctx, actorID, id)
	case "withdraw":
		app, err = apps.Withdraw(ctx, actorID, id)
	case "remove":
		app, err = apps.Remove(ctx, actorID, id)
	case "promote":
		app, err = apps.SetStatusManager(ctx, actorID, id, true)
	case "demote":
		app, err = apps.SetStatusManager(ctx, actorID, id, false)
	default:
		writeError(w, http.StatusNotFound, "unknown application action")
		return
	}
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.ownOrganization(w, r)
	if !ok {
		return
	}
	snap, err := s.svc.Dashboard.Refresh(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleOrganizationStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.ownOrganization(w, r)
	if !ok {
		return
	}
	stats, err := s.svc.Dashboard.GetOrganizationStats(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTeamAnalytics(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.ownOrganization(w, r)
	if !ok {
		return
	}
	analytics, err := s.svc.Dashboard.GetTeamAnalytics(r.Context(), orgID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleDeveloperStats(w http.ResponseWriter, r *http.Request) {
	developerID := chi.URLParam(r, "id")
	if ViewerFromContext(r.Context()).ID != developerID {
		writeError(w, http.StatusForbidden, "developer stats are private")
		return
	}
	stats, err := s.svc.Dashboard.GetDeveloperStats(r.Context(), developerID)
	if err != nil {
		writeDomainError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ownOrganization returns the organization in the path when the viewer is that organization.
func (s *Server) ownOrganization(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := chi.URLParam(r, "id")
	viewer := ViewerFromContext(r.Context())
	if viewer.Role != profile.RoleOrganization || viewer.ID != orgID {
		writeError(w, http.StatusForbidden, "dashboard belongs to another organization")
		return "", false
	}
	return orgID, true
}

// metricsMiddleware records request latency by route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
