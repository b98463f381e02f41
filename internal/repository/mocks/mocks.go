package mocks

import (
	"context"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/stretchr/testify/mock"
)

// ProfileRepository is a mock for profile.Repository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*profile.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByOrganization(ctx context.Context, organizationID string) ([]project.Project, error) {
	args := m.Called(ctx, organizationID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListForSearch(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, id string, status project.Status, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

// ApplicationRepository is a mock for application.Repository.
type ApplicationRepository struct {
	mock.Mock
}

func (m *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *ApplicationRepository) Get(ctx context.Context, id string) (*application.Application, error) {
	args := m.Called(ctx, id)
	if app, ok := args.Get(0).(*application.Application); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status application.Status, statusManager bool, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, statusManager, updatedAt)
	return args.Error(0)
}

func (m *ApplicationRepository) Accept(ctx context.Context, id string, maxTeamSize int, acceptedAt time.Time) error {
	args := m.Called(ctx, id, maxTeamSize, acceptedAt)
	return args.Error(0)
}

func (m *ApplicationRepository) SetStatusManager(ctx context.Context, id string, statusManager bool) error {
	args := m.Called(ctx, id, statusManager)
	return args.Error(0)
}

func (m *ApplicationRepository) ListByProject(ctx context.Context, projectID string) ([]application.Application, error) {
	args := m.Called(ctx, projectID)
	return applications(args.Get(0)), args.Error(1)
}

func (m *ApplicationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]application.Application, error) {
	args := m.Called(ctx, organizationID)
	return applications(args.Get(0)), args.Error(1)
}

func (m *ApplicationRepository) ListByDeveloper(ctx context.Context, developerID string) ([]application.Application, error) {
	args := m.Called(ctx, developerID)
	return applications(args.Get(0)), args.Error(1)
}

func (m *ApplicationRepository) FindLive(ctx context.Context, projectID, developerID string) (*application.Application, error) {
	args := m.Called(ctx, projectID, developerID)
	if app, ok := args.Get(0).(*application.Application); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) IsStatusManager(ctx context.Context, projectID, userID string) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

func applications(v any) []application.Application {
	if list, ok := v.([]application.Application); ok {
		return list
	}
	return nil
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// HistoryRepository is a mock for telemetry.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) Append(ctx context.Context, entry *telemetry.SearchHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error) {
	args := m.Called(ctx, userID, limit)
	if list, ok := args.Get(0).([]telemetry.SearchHistory); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *HistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// PopularityStore is a mock for telemetry.PopularityStore.
type PopularityStore struct {
	mock.Mock
}

func (m *PopularityStore) Increment(ctx context.Context, term string, at time.Time) error {
	args := m.Called(ctx, term, at)
	return args.Error(0)
}

func (m *PopularityStore) Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]telemetry.PopularSearch); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// AnalyticsSink is a mock for telemetry.AnalyticsSink.
type AnalyticsSink struct {
	mock.Mock
}

func (m *AnalyticsSink) Record(ctx context.Context, event *telemetry.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
