package project

import (
	"context"
	"time"
)

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]Project, error)
	ListForSearch(ctx context.Context) ([]Project, error)
	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error
}

// StatusManagers answers whether a developer was granted status rights on a project.
type StatusManagers interface {
	IsStatusManager(ctx context.Context, projectID, userID string) (bool, error)
}

