package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// filePragmas apply to every pooled connection of a file database. Writers
// wait for the lock instead of failing with SQLITE_BUSY, and WAL lets readers
// proceed while a write is in progress.
const filePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	memory := isMemory(dataSourceName)
	dsn := dataSourceName
	if !memory {
		dsn = withPragmas(dataSourceName)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory databases are per connection.
	if memory {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

func isMemory(dataSourceName string) bool {
	return dataSourceName == ":memory:" || strings.Contains(dataSourceName, "mode=memory")
}

func withPragmas(dataSourceName string) string {
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	return dataSourceName + sep + filePragmas
}

// RunMigrations creates the schema. It is safe to run repeatedly.
func (db *DB) RunMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('developer', 'organization')),
    organization_name TEXT NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    organization_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    requirements TEXT NOT NULL DEFAULT '',
    technology_stack TEXT NOT NULL DEFAULT '[]',
    difficulty_level TEXT NOT NULL CHECK(difficulty_level IN ('beginner', 'intermediate', 'advanced')),
    application_type TEXT NOT NULL CHECK(application_type IN ('individual', 'team', 'both')),
    status TEXT NOT NULL CHECK(status IN ('pending', 'open', 'in_progress', 'completed', 'paused')),
    is_remote INTEGER NOT NULL DEFAULT 0,
    location TEXT,
    deadline TIMESTAMP,
    max_team_size INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    FOREIGN KEY (organization_id) REFERENCES profiles(id)
);
CREATE INDEX IF NOT EXISTS idx_projects_organization ON projects(organization_id);
CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);

CREATE TABLE IF NOT EXISTS applications (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    developer_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'rejected', 'withdrawn', 'removed')),
    status_manager INTEGER NOT NULL DEFAULT 0,
    cover_letter TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id),
    FOREIGN KEY (developer_id) REFERENCES profiles(id)
);
CREATE INDEX IF NOT EXISTS idx_applications_project ON applications(project_id);
CREATE INDEX IF NOT EXISTS idx_applications_developer ON applications(developer_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_live
    ON applications(project_id, developer_id) WHERE status IN ('pending', 'accepted');

CREATE TABLE IF NOT EXISTS team_activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_team_activities_project ON team_activities(project_id);
CREATE INDEX IF NOT EXISTS idx_team_activities_created_at ON team_activities(created_at);

CREATE TABLE IF NOT EXISTS search_history (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    search_term TEXT NOT NULL,
    filters TEXT,
    result_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history(user_id, created_at);

CREATE TABLE IF NOT EXISTS popular_searches (
    term TEXT PRIMARY KEY,
    search_count INTEGER NOT NULL DEFAULT 1,
    last_searched TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS search_analytics (
    id TEXT PRIMARY KEY,
    search_term TEXT NOT NULL,
    user_id TEXT,
    result_count INTEGER NOT NULL DEFAULT 0,
    clicked_project_id TEXT,
    click_position INTEGER,
    session_id TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_analytics_created_at ON search_analytics(created_at);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
