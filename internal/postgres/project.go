package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/repository"
)

const projectSelect = `
	SELECT p.id, p.organization_id, p.title, p.description, p.requirements,
		p.technology_stack, p.difficulty_level, p.application_type, p.status,
		p.is_remote, p.location, p.deadline, p.max_team_size, p.created_at, p.updated_at,
		COALESCE(NULLIF(o.organization_name, ''), o.full_name, '') AS organization_name,
		(SELECT COUNT(*) FROM applications a WHERE a.project_id = p.id AND a.status = 'accepted')::int AS team_size
	FROM projects p
	LEFT JOIN profiles o ON o.id = p.organization_id`

// ProjectRepository implements project.Repository on PostgreSQL.
type ProjectRepository struct {
	db Querier
}

func NewProjectRepository(db Querier) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	stack := proj.TechnologyStack
	if stack == nil {
		stack = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO projects (
			id, organization_id, title, description, requirements, technology_stack,
			difficulty_level, application_type, status, is_remote, location, deadline,
			max_team_size, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		proj.ID, proj.OrganizationID, proj.Title, proj.Description, proj.Requirements, stack,
		string(proj.DifficultyLevel), string(proj.ApplicationType), string(proj.Status),
		proj.IsRemote, proj.Location, proj.Deadline, proj.MaxTeamSize, proj.CreatedAt, proj.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	proj, err := scanProject(r.db.QueryRow(ctx, projectSelect+" WHERE p.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

func (r *ProjectRepository) ListByOrganization(ctx context.Context, organizationID string) ([]project.Project, error) {
	return r.list(ctx, projectSelect+" WHERE p.organization_id = $1 ORDER BY p.created_at DESC", organizationID)
}

func (r *ProjectRepository) ListForSearch(ctx context.Context) ([]project.Project, error) {
	return r.list(ctx, projectSelect+" ORDER BY p.created_at DESC")
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status project.Status, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`, string(status), updatedAt, id)
	if err != nil {
		return fmt.Errorf("updating project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) list(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var proj project.Project
	var difficulty, appType, status string
	err := row.Scan(
		&proj.ID, &proj.OrganizationID, &proj.Title, &proj.Description, &proj.Requirements,
		&proj.TechnologyStack, &difficulty, &appType, &status,
		&proj.IsRemote, &proj.Location, &proj.Deadline, &proj.MaxTeamSize, &proj.CreatedAt, &proj.UpdatedAt,
		&proj.OrganizationName, &proj.TeamSize,
	)
	if err != nil {
		return nil, err
	}
	proj.DifficultyLevel = project.Difficulty(difficulty)
	proj.ApplicationType = project.ApplicationType(appType)
	proj.Status = project.Status(status)
	if proj.TechnologyStack == nil {
		proj.TechnologyStack = []string{}
	}
	return &proj, nil
}
