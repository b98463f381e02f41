package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const recentActivityLimit = 20

// Service assembles organization and developer dashboards.
type Service struct {
	projects     ProjectLister
	applications ApplicationLister
	activities   ActivityLister
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a new dashboard service. activities may be nil.
func NewService(projects ProjectLister, applications ApplicationLister, activities ActivityLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		projects:     projects,
		applications: applications,
		activities:   activities,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetOrganizationStats computes the headline counters for one organization.
func (s *Service) GetOrganizationStats(ctx context.Context, organizationID string) (*OrganizationStats, error) {
	projects, apps, err := s.load(ctx, organizationID, nil)
	if err != nil {
		return nil, err
	}
	stats := ComputeOrganizationStats(projects, apps)
	return &stats, nil
}

// GetTeamAnalytics computes team membership for one organization.
func (s *Service) GetTeamAnalytics(ctx context.Context, organizationID string) (*TeamAnalytics, error) {
	projects, apps, err := s.load(ctx, organizationID, nil)
	if err != nil {
		return nil, err
	}
	analytics := ComputeTeamAnalytics(projects, apps)
	return &analytics, nil
}

// Refresh fetches everything an organization dashboard shows in one pass.
func (s *Service) Refresh(ctx context.Context, organizationID string) (snap *Snapshot, err error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, ErrInvalidInput
	}
	start := time.Now()
	defer func() { metrics.ObserveDashboardRefresh(err, time.Since(start)) }()

	var recent []activity.Entry
	projects, apps, err := s.load(ctx, organizationID, &recent)
	if err != nil {
		s.logger.Warn("dashboard refresh failed", "organization_id", organizationID, "error", err)
		return nil, err
	}
	if recent == nil {
		recent = []activity.Entry{}
	}

	return &Snapshot{
		Stats:          ComputeOrganizationStats(projects, apps),
		Projects:       BuildDashboardProjects(projects, apps),
		Applications:   Summaries(apps),
		TeamAnalytics:  ComputeTeamAnalytics(projects, apps),
		RecentActivity: recent,
		LastUpdated:    s.now(),
	}, nil
}

// GetDeveloperStats computes the developer-side dashboard counters.
func (s *Service) GetDeveloperStats(ctx context.Context, developerID string) (*DeveloperStats, error) {
	if strings.TrimSpace(developerID) == "" {
		return nil, ErrInvalidInput
	}
	apps, err := s.applications.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	stats := ComputeDeveloperStats(apps)
	return &stats, nil
}

// load fetches an organization's projects and applications concurrently. When
// recent is non-nil the latest team activity is fetched alongside them.
// The first failing fetch cancels the others.
func (s *Service) load(ctx context.Context, organizationID string, recent *[]activity.Entry) ([]project.Project, []application.Application, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, nil, ErrInvalidInput
	}
	var (
		projects []project.Project
		apps     []application.Application
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if projects, err = s.projects.ListByOrganization(gctx, organizationID); err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if apps, err = s.applications.ListByOrganization(gctx, organizationID); err != nil {
			return fmt.Errorf("listing applications: %w", err)
		}
		return nil
	})
	if recent != nil && s.activities != nil {
		g.Go(func() error {
			entries, err := s.activities.List(gctx, activity.ListOptions{
				OrganizationID: organizationID,
				Limit:          recentActivityLimit,
			})
			if err != nil {
				return fmt.Errorf("listing activity: %w", err)
			}
			*recent = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return projects, apps, nil
}
