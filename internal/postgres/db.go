// Package postgres implements the storage gateway on PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('developer', 'organization')),
		organization_name TEXT NOT NULL DEFAULT '',
		skills TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES profiles(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		requirements TEXT NOT NULL DEFAULT '',
		technology_stack TEXT[] NOT NULL DEFAULT '{}',
		difficulty_level TEXT NOT NULL CHECK (difficulty_level IN ('beginner', 'intermediate', 'advanced')),
		application_type TEXT NOT NULL CHECK (application_type IN ('individual', 'team', 'both')),
		status TEXT NOT NULL CHECK (status IN ('pending', 'open', 'in_progress', 'completed', 'paused')),
		is_remote BOOLEAN NOT NULL DEFAULT FALSE,
		location TEXT,
		deadline TIMESTAMPTZ,
		max_team_size INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_organization ON projects(organization_id)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		developer_id TEXT NOT NULL REFERENCES profiles(id),
		status TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected', 'withdrawn', 'removed')),
		status_manager BOOLEAN NOT NULL DEFAULT FALSE,
		cover_letter TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_project ON applications(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_developer ON applications(developer_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_live
		ON applications(project_id, developer_id) WHERE status IN ('pending', 'accepted')`,
	`CREATE TABLE IF NOT EXISTS team_activities (
		id BIGSERIAL PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id),
		actor_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		summary TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_activities_project ON team_activities(project_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		search_term TEXT NOT NULL,
		filters JSONB,
		result_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS popular_searches (
		term TEXT PRIMARY KEY,
		search_count BIGINT NOT NULL DEFAULT 1,
		last_searched TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS search_analytics (
		id TEXT PRIMARY KEY,
		search_term TEXT NOT NULL,
		user_id TEXT,
		result_count INTEGER NOT NULL DEFAULT 0,
		clicked_project_id TEXT,
		click_position INTEGER,
		session_id TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db Querier) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
