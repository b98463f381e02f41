package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo       Repository
	managers   StatusManagers
	activities activity.Repository
	logger     *slog.Logger
}

// NewService creates a new project service. managers and activities may be nil.
func NewService(repo Repository, managers StatusManagers, activities activity.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, managers: managers, activities: activities, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Requirements    string     `json:"requirements,omitempty"`
	TechnologyStack []string   `json:"technology_stack,omitempty"`
	DifficultyLevel string     `json:"difficulty_level"`
	ApplicationType string     `json:"application_type"`
	Status          string     `json:"status,omitempty"`
	IsRemote        bool       `json:"is_remote"`
	Location        *string    `json:"location,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	MaxTeamSize     int        `json:"max_team_size,omitempty"`
}

// Create validates and stores a new project owned by organizationID.
func (s *Service) Create(ctx context.Context, organizationID string, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(organizationID) == "" || strings.TrimSpace(req.Title) == "" {
		return nil, ErrInvalidInput
	}

	difficulty, err := ParseDifficulty(req.DifficultyLevel)
	if err != nil {
		return nil, err
	}
	appType, err := ParseApplicationType(req.ApplicationType)
	if err != nil {
		return nil, err
	}
	status := StatusOpen
	if req.Status != "" {
		if status, err = ParseStatus(req.Status); err != nil {
			return nil, err
		}
	}

	maxTeam := req.MaxTeamSize
	switch {
	case appType == ApplicationIndividual:
		maxTeam = 1
	case maxTeam < 1:
		return nil, fmt.Errorf("%w: max_team_size must be positive", ErrInvalidInput)
	}

	now := time.Now().UTC()
	proj := &Project{
		ID:              uuid.NewString(),
		OrganizationID:  organizationID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Requirements:    req.Requirements,
		TechnologyStack: cleanStack(req.TechnologyStack),
		DifficultyLevel: difficulty,
		ApplicationType: appType,
		Status:          status,
		IsRemote:        req.IsRemote,
		Location:        req.Location,
		Deadline:        req.Deadline,
		MaxTeamSize:     maxTeam,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: unknown organization", ErrInvalidInput)
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// ListByOrganization returns every project owned by an organization.
func (s *Service) ListByOrganization(ctx context.Context, organizationID string) ([]Project, error) {
	projects, err := s.repo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// UpdateStatus moves a project to a new status. Only the owning organization
// or a developer promoted to status manager may do this.
func (s *Service) UpdateStatus(ctx context.Context, actorID, projectID string, status Status) (*Project, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allowed := proj.OrganizationID == actorID
	if !allowed && s.managers != nil {
		allowed, err = s.managers.IsStatusManager(ctx, projectID, actorID)
		if err != nil {
			return nil, fmt.Errorf("checking status manager: %w", err)
		}
	}
	if !allowed {
		return nil, ErrForbidden
	}
	if proj.Status == status {
		return proj, nil
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, projectID, status, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("updating project status: %w", err)
	}

	from := proj.Status
	proj.Status = status
	proj.UpdatedAt = now

	if s.activities != nil {
		if err := s.activities.Log(ctx, &activity.Entry{
			ProjectID: projectID,
			ActorID:   actorID,
			Type:      activity.TypeProjectStatusChanged,
			Summary:   fmt.Sprintf("status changed from %s to %s", from, status),
			CreatedAt: now,
		}); err != nil {
			s.logger.Warn("team activity not recorded", "project_id", projectID, "error", err)
		}
	}
	return proj, nil
}

func cleanStack(stack []string) []string {
	seen := make(map[string]struct{}, len(stack))
	out := make([]string, 0, len(stack))
	for _, tech := range stack {
		tech = strings.TrimSpace(tech)
		key := strings.ToLower(tech)
		if tech == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tech)
	}
	return out
}
