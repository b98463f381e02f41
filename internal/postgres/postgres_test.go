package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/repository"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestMigrate(t *testing.T) {
	mock := newMock(t)
	for range migrations {
		mock.ExpectExec("CREATE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	require.NoError(t, Migrate(context.Background(), mock))
}

func TestPopularityStore(t *testing.T) {
	mock := newMock(t)
	store := NewPopularityStore(mock)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (term) DO UPDATE")).
		WithArgs("react", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, store.Increment(ctx, "react", at))

	mock.ExpectQuery(regexp.QuoteMeta("FROM popular_searches")).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"term", "search_count", "last_searched"}).
			AddRow("react", int64(3), at).
			AddRow("go", int64(1), at))
	terms, err := store.Top(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, []telemetry.PopularSearch{
		{Term: "react", SearchCount: 3, LastSearched: at},
		{Term: "go", SearchCount: 1, LastSearched: at},
	}, terms)
}

func TestHistoryRepository_DeleteBefore(t *testing.T) {
	mock := newMock(t)
	repo := NewHistoryRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM search_history WHERE created_at < $1")).
		WithArgs(at).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	n, err := repo.DeleteBefore(context.Background(), at)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestProjectRepository_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProjectRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status")).
		WithArgs("completed", at, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repo.UpdateStatus(ctx, "missing", project.StatusCompleted, at)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplicationRepository_CreateConflict(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WithArgs("a1", "p1", "dev1", "pending", false, "", at, at).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	err := repo.Create(context.Background(), &application.Application{
		ID: "a1", ProjectID: "p1", DeveloperID: "dev1", Status: application.StatusPending, CreatedAt: at, UpdatedAt: at,
	})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestApplicationRepository_ListByDeveloper(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)

	cols := []string{"id", "project_id", "developer_id", "status", "status_manager", "cover_letter",
		"created_at", "updated_at", "developer_name", "project_title"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.developer_id = $1")).
		WithArgs("dev1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("a1", "p1", "dev1", "accepted", true, "hi", at, at.Add(time.Hour), "Dev One", "Shelter"))

	apps, err := repo.ListByDeveloper(context.Background(), "dev1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, application.StatusAccepted, apps[0].Status)
	require.True(t, apps[0].StatusManager)
	require.Equal(t, "Shelter", apps[0].ProjectTitle)
}

func TestActivityRepository_ListNumbersPlaceholders(t *testing.T) {
	mock := newMock(t)
	repo := NewActivityRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.organization_id = $1 ORDER BY t.created_at DESC, t.id DESC LIMIT $2")).
		WithArgs("org1", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "actor_id", "activity_type", "summary", "details", "created_at"}).
			AddRow(int64(7), "p1", "org1", "application_accepted", "accepted", "", at))

	entries, err := repo.List(context.Background(), activity.ListOptions{OrganizationID: "org1", Limit: 20})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, activity.TypeApplicationAccepted, entries[0].Type)
	require.Equal(t, int64(7), entries[0].ID)
}

func TestAnalyticsSink_Record(t *testing.T) {
	mock := newMock(t)
	sink := NewAnalyticsSink(mock)

	event := &telemetry.AnalyticsEvent{ID: "e1", SearchTerm: "react", ResultCount: 3, CreatedAt: at}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO search_analytics")).
		WithArgs("e1", "react", event.UserID, 3, event.ClickedProjectID, event.ClickPosition, event.SessionID, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, sink.Record(context.Background(), event))
}

func TestApplicationRepository_Accept(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF p")).
		WithArgs("a2").
		WillReturnRows(pgxmock.NewRows([]string{"project_id", "status"}).AddRow("p1", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = 'accepted'")).
		WithArgs(at, "a2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Accept(ctx, "a2", 4, at))

	// Full team: nothing is written and the transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF p")).
		WithArgs("a3").
		WillReturnRows(pgxmock.NewRows([]string{"project_id", "status"}).AddRow("p1", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()
	require.ErrorIs(t, repo.Accept(ctx, "a3", 1, at), repository.ErrConflict)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF p")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	require.ErrorIs(t, repo.Accept(ctx, "missing", 1, at), repository.ErrNotFound)
}

func TestApplicationRepository_SetStatusManager(t *testing.T) {
	mock := newMock(t)
	repo := NewApplicationRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("SET status_manager = $1 WHERE id = $2 AND status = 'accepted'")).
		WithArgs(true, "a1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, repo.SetStatusManager(context.Background(), "a1", true), repository.ErrNotFound)
}
