package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/repository"
)

const projectColumns = `
	p.id, p.organization_id, p.title, p.description, p.requirements,
	p.technology_stack, p.difficulty_level, p.application_type, p.status,
	p.is_remote, p.location, p.deadline, p.max_team_size, p.created_at, p.updated_at,
	COALESCE(NULLIF(o.organization_name, ''), o.full_name, '') AS organization_name,
	(SELECT COUNT(*) FROM applications a WHERE a.project_id = p.id AND a.status = 'accepted') AS team_size
FROM projects p
LEFT JOIN profiles o ON o.id = p.organization_id`

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	stack, err := encodeList(proj.TechnologyStack)
	if err != nil {
		return fmt.Errorf("failed to encode technology stack: %w", err)
	}

	var deadline any
	if proj.Deadline != nil {
		deadline = proj.Deadline.UTC()
	}

	query := `
		INSERT INTO projects (
			id, organization_id, title, description, requirements, technology_stack,
			difficulty_level, application_type, status, is_remote, location, deadline,
			max_team_size, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		proj.ID,
		proj.OrganizationID,
		proj.Title,
		proj.Description,
		proj.Requirements,
		stack,
		proj.DifficultyLevel,
		proj.ApplicationType,
		proj.Status,
		proj.IsRemote,
		proj.Location,
		deadline,
		proj.MaxTeamSize,
		proj.CreatedAt.UTC(),
		proj.UpdatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" WHERE p.id = ?", id)
	proj, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// ListByOrganization returns an organization's projects, newest first
func (r *ProjectRepository) ListByOrganization(ctx context.Context, organizationID string) ([]project.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" WHERE p.organization_id = ? ORDER BY p.created_at DESC", organizationID)
}

// ListForSearch returns every project with its organization name and team size, newest first
func (r *ProjectRepository) ListForSearch(ctx context.Context) ([]project.Project, error) {
	return r.list(ctx, "SELECT "+projectColumns+" ORDER BY p.created_at DESC")
}

// UpdateStatus sets a project's status
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status project.Status, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) list(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var proj project.Project
	var stack string
	var location sql.NullString
	var deadline sql.NullTime
	err := row.Scan(
		&proj.ID,
		&proj.OrganizationID,
		&proj.Title,
		&proj.Description,
		&proj.Requirements,
		&stack,
		&proj.DifficultyLevel,
		&proj.ApplicationType,
		&proj.Status,
		&proj.IsRemote,
		&location,
		&deadline,
		&proj.MaxTeamSize,
		&proj.CreatedAt,
		&proj.UpdatedAt,
		&proj.OrganizationName,
		&proj.TeamSize,
	)
	if err != nil {
		return nil, err
	}
	if proj.TechnologyStack, err = decodeList(stack); err != nil {
		return nil, fmt.Errorf("failed to decode technology stack: %w", err)
	}
	if location.Valid {
		proj.Location = &location.String
	}
	if deadline.Valid {
		d := deadline.Time
		proj.Deadline = &d
	}
	return &proj, nil
}
