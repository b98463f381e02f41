package application

import (
	"context"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/project"
)

// Repository provides persistence for applications.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	Get(ctx context.Context, id string) (*Application, error)
	UpdateStatus(ctx context.Context, id string, status Status, statusManager bool, updatedAt time.Time) error
	// Accept moves a pending application to accepted only while the project has
	// fewer than maxTeamSize accepted members (no cap when maxTeamSize <= 0).
	// The check and the write are atomic. It returns repository.ErrConflict when
	// the application is no longer pending or the team is full.
	Accept(ctx context.Context, id string, maxTeamSize int, acceptedAt time.Time) error
	// SetStatusManager changes the flag on an accepted application without
	// touching updated_at, so join time and response time stay put.
	SetStatusManager(ctx context.Context, id string, statusManager bool) error
	ListByProject(ctx context.Context, projectID string) ([]Application, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]Application, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]Application, error)
	FindLive(ctx context.Context, projectID, developerID string) (*Application, error)
	IsStatusManager(ctx context.Context, projectID, userID string) (bool, error)
}

// ProjectReader loads the project an application targets.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}
