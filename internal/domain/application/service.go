package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/repository"
)

// Service handles application operations.
type Service struct {
	repo       Repository
	projects   ProjectReader
	activities activity.Repository
	logger     *slog.Logger
}

// NewService creates a new application service. activities may be nil.
func NewService(repo Repository, projects ProjectReader, activities activity.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, projects: projects, activities: activities, logger: logger}
}

// Apply creates a pending application from developerID to projectID.
func (s *Service) Apply(ctx context.Context, developerID, projectID, coverLetter string) (*Application, error) {
	if strings.TrimSpace(developerID) == "" || strings.TrimSpace(projectID) == "" {
		return nil, ErrInvalidInput
	}

	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.Status != project.StatusOpen {
		return nil, ErrProjectClosed
	}
	if proj.OrganizationID == developerID {
		return nil, ErrForbidden
	}

	existing, err := s.repo.FindLive(ctx, projectID, developerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking existing application: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateApplication
	}

	now := time.Now().UTC()
	app := &Application{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		DeveloperID:  developerID,
		Status:       StatusPending,
		CoverLetter:  coverLetter,
		CreatedAt:    now,
		UpdatedAt:    now,
		ProjectTitle: proj.Title,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("creating application: %w", err)
	}

	s.logActivity(ctx, app.ProjectID, developerID, activity.TypeApplicationSubmitted, "applied to "+proj.Title)
	return app, nil
}

// Get fetches an application by ID.
func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("getting application: %w", err)
	}
	return app, nil
}

// Accept moves a pending application to accepted. Only the project owner may accept,
// and only while the team has room.
func (s *Service) Accept(ctx context.Context, actorID, id string) (*Application, error) {
	app, proj, err := s.loadForOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(app.Status, StatusAccepted); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.Accept(ctx, app.ID, proj.MaxTeamSize, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrApplicationNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, s.acceptConflict(ctx, app.ID)
		}
		return nil, fmt.Errorf("accepting application: %w", err)
	}
	app.Status = StatusAccepted
	app.StatusManager = false
	app.UpdatedAt = now

	s.logActivity(ctx, app.ProjectID, actorID, activity.TypeApplicationAccepted, fmt.Sprintf("application %s is now %s", app.ID, StatusAccepted))
	return app, nil
}

// acceptConflict tells a concurrent status change apart from a full team.
func (s *Service) acceptConflict(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ValidateTransition(current.Status, StatusAccepted); err != nil {
		return err
	}
	return ErrTeamFull
}

// Reject moves a pending application to rejected.
func (s *Service) Reject(ctx context.Context, actorID, id string) (*Application, error) {
	app, _, err := s.loadForOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(app.Status, StatusRejected); err != nil {
		return nil, err
	}
	return s.apply(ctx, actorID, app, StatusRejected, false, activity.TypeApplicationRejected)
}

// Remove takes an accepted developer off the team.
func (s *Service) Remove(ctx context.Context, actorID, id string) (*Application, error) {
	app, _, err := s.loadForOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(app.Status, StatusRemoved); err != nil {
		return nil, err
	}
	return s.apply(ctx, actorID, app, StatusRemoved, false, activity.TypeMemberRemoved)
}

// Withdraw lets the developer leave a team they were accepted to.
func (s *Service) Withdraw(ctx context.Context, actorID, id string) (*Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.DeveloperID != actorID {
		return nil, ErrForbidden
	}
	if err := ValidateTransition(app.Status, StatusWithdrawn); err != nil {
		return nil, err
	}
	return s.apply(ctx, actorID, app, StatusWithdrawn, false, activity.TypeApplicationWithdrawn)
}

// SetStatusManager grants or revokes status-manager rights on an accepted member.
func (s *Service) SetStatusManager(ctx context.Context, actorID, id string, grant bool) (*Application, error) {
	app, _, err := s.loadForOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusAccepted {
		return nil, ErrInvalidTransition
	}
	if app.StatusManager == grant {
		return app, nil
	}
	kind := activity.TypeStatusManagerGranted
	if !grant {
		kind = activity.TypeStatusManagerRevoked
	}
	if err := s.repo.SetStatusManager(ctx, app.ID, grant); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("updating status manager: %w", err)
	}
	app.StatusManager = grant

	s.logActivity(ctx, app.ProjectID, actorID, kind, fmt.Sprintf("status manager for application %s set to %t", app.ID, grant))
	return app, nil
}

// ListByDeveloper returns a developer's applications, newest first.
func (s *Service) ListByDeveloper(ctx context.Context, developerID string) ([]Application, error) {
	apps, err := s.repo.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("listing developer applications: %w", err)
	}
	return apps, nil
}

// ListTeam returns the derived team of a project: the owner plus accepted developers.
func (s *Service) ListTeam(ctx context.Context, projectID string) ([]TeamMember, error) {
	proj, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	apps, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project applications: %w", err)
	}
	return BuildTeam(proj.OrganizationID, proj.OrganizationName, proj.CreatedAt, apps), nil
}

func (s *Service) apply(ctx context.Context, actorID string, app *Application, to Status, statusManager bool, kind activity.Type) (*Application, error) {
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, app.ID, to, statusManager, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("updating application: %w", err)
	}
	app.Status = to
	app.StatusManager = statusManager
	app.UpdatedAt = now

	s.logActivity(ctx, app.ProjectID, actorID, kind, fmt.Sprintf("application %s is now %s", app.ID, to))
	return app, nil
}

func (s *Service) loadForOwner(ctx context.Context, actorID, id string) (*Application, *project.Project, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	proj, err := s.loadProject(ctx, app.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if proj.OrganizationID != actorID {
		return nil, nil, ErrForbidden
	}
	return app, proj, nil
}

func (s *Service) loadProject(ctx context.Context, projectID string) (*project.Project, error) {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, project.ErrProjectNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

func (s *Service) logActivity(ctx context.Context, projectID, actorID string, kind activity.Type, summary string) {
	if s.activities == nil {
		return
	}
	if err := s.activities.Log(ctx, &activity.Entry{
		ProjectID: projectID,
		ActorID:   actorID,
		Type:      kind,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("team activity not recorded", "project_id", projectID, "type", kind, "error", err)
	}
}
