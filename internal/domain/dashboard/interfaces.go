package dashboard

import (
	"context"

	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/project"
)

// ProjectLister lists an organization's projects.
type ProjectLister interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]project.Project, error)
}

// ApplicationLister lists applications for either side of the marketplace.
type ApplicationLister interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]application.Application, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]application.Application, error)
}

// ActivityLister lists team activity.
type ActivityLister interface {
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}
