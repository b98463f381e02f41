package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewFileTestDB creates a file-backed database with a connection pool, so
// concurrent statements run on separate connections.
func NewFileTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "civicmatch.db"))
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, db.RunMigrations(), "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var seedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func insertProfile(t *testing.T, db *DB, id string, role profile.Role) {
	t.Helper()
	p := &profile.Profile{
		ID:        id,
		FullName:  "Name " + id,
		Role:      role,
		CreatedAt: seedTime,
		UpdatedAt: seedTime,
	}
	if role == profile.RoleOrganization {
		p.OrganizationName = "Org " + id
	}
	require.NoError(t, NewProfileRepository(db).Upsert(context.Background(), p))
}

func insertProject(t *testing.T, db *DB, id, organizationID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), &project.Project{
		ID:              id,
		OrganizationID:  organizationID,
		Title:           "Project " + id,
		TechnologyStack: []string{"Go"},
		DifficultyLevel: project.DifficultyBeginner,
		ApplicationType: project.ApplicationTeam,
		Status:          project.StatusOpen,
		MaxTeamSize:     3,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}))
}

// TestMigrations verifies that migrations run successfully and can run twice
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())

	tables := []string{
		"profiles",
		"projects",
		"applications",
		"team_activities",
		"search_history",
		"popular_searches",
		"search_analytics",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestProjectsStatusConstraint(t *testing.T) {
	db := NewTestDB(t)
	insertProfile(t, db, "org1", profile.RoleOrganization)

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO projects (id, organization_id, title, difficulty_level, application_type, status, created_at, updated_at)
		VALUES ('p1', 'org1', 'x', 'beginner', 'team', 'archived', ?, ?)
	`, seedTime, seedTime)
	require.Error(t, err, "should fail with invalid status")
}

func TestNew_FileDatabasePragmas(t *testing.T) {
	db := NewFileTestDB(t)
	ctx := context.Background()

	// Hold several connections at once so the pragmas are checked on more than one.
	conns := make([]*sql.Conn, 3)
	for i := range conns {
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()
		conns[i] = conn
	}
	for _, conn := range conns {
		var mode string
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		require.Equal(t, "wal", mode)

		var timeout, fk int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.Equal(t, 5000, timeout)
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.Equal(t, 1, fk)
	}
}

func TestWithPragmas(t *testing.T) {
	require.Equal(t, "civic.db?"+filePragmas, withPragmas("civic.db"))
	require.Equal(t, "file:civic.db?cache=shared&"+filePragmas, withPragmas("file:civic.db?cache=shared"))
	require.True(t, isMemory(":memory:"))
	require.True(t, isMemory("file:test?mode=memory&cache=shared"))
	require.False(t, isMemory("data/civic.db"))
}
