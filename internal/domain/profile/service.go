package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/civicmatch/internal/repository"
)

// Service handles profile operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// UpsertRequest defines the editable profile fields.
type UpsertRequest struct {
	FullName         string   `json:"full_name"`
	OrganizationName string   `json:"organization_name,omitempty"`
	Skills           []string `json:"skills,omitempty"`
}

// Upsert creates or updates the viewer's own profile. The role always comes from the viewer.
func (s *Service) Upsert(ctx context.Context, viewer Viewer, req UpsertRequest) (*Profile, error) {
	if viewer.IsAnonymous() {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, ErrInvalidInput
	}
	if viewer.Role == RoleOrganization && strings.TrimSpace(req.OrganizationName) == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	p := &Profile{
		ID:               viewer.ID,
		FullName:         strings.TrimSpace(req.FullName),
		Role:             viewer.Role,
		OrganizationName: strings.TrimSpace(req.OrganizationName),
		Skills:           req.Skills,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return p, nil
}

// Get fetches a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}
