package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/repository"
)

const applicationSelect = `
	SELECT a.id, a.project_id, a.developer_id, a.status, a.status_manager, a.cover_letter,
		a.created_at, a.updated_at,
		COALESCE(d.full_name, '') AS developer_name,
		COALESCE(p.title, '') AS project_title
	FROM applications a
	LEFT JOIN profiles d ON d.id = a.developer_id
	LEFT JOIN projects p ON p.id = a.project_id`

// ApplicationRepository implements application.Repository on PostgreSQL.
type ApplicationRepository struct {
	db Querier
}

func NewApplicationRepository(db Querier) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO applications (
			id, project_id, developer_id, status, status_manager, cover_letter, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, app.ID, app.ProjectID, app.DeveloperID, string(app.Status), app.StatusManager, app.CoverLetter, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("creating application: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id string) (*application.Application, error) {
	return r.one(ctx, applicationSelect+" WHERE a.id = $1", id)
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status application.Status, statusManager bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE applications SET status = $1, status_manager = $2, updated_at = $3 WHERE id = $4`,
		string(status), statusManager, updatedAt, id)
	if err != nil {
		if cerr := constraintError(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("updating application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Accept locks the project row so concurrent accepts on the same project
// count members one at a time.
func (r *ApplicationRepository) Accept(ctx context.Context, id string, maxTeamSize int, acceptedAt time.Time) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning accept: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var projectID, status string
	err = tx.QueryRow(ctx, `
		SELECT a.project_id, a.status
		FROM applications a
		JOIN projects p ON p.id = a.project_id
		WHERE a.id = $1
		FOR UPDATE OF p
	`, id).Scan(&projectID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking project: %w", err)
	}
	if application.Status(status) != application.StatusPending {
		return repository.ErrConflict
	}

	if maxTeamSize > 0 {
		var members int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM applications WHERE project_id = $1 AND status = 'accepted'`,
			projectID).Scan(&members)
		if err != nil {
			return fmt.Errorf("counting members: %w", err)
		}
		if members >= maxTeamSize {
			return repository.ErrConflict
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE applications SET status = 'accepted', status_manager = FALSE, updated_at = $1
		WHERE id = $2 AND status = 'pending'
	`, acceptedAt, id)
	if err != nil {
		return fmt.Errorf("accepting application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing accept: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) SetStatusManager(ctx context.Context, id string, statusManager bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE applications SET status_manager = $1 WHERE id = $2 AND status = 'accepted'`,
		statusManager, id)
	if err != nil {
		return fmt.Errorf("updating status manager: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) ListByProject(ctx context.Context, projectID string) ([]application.Application, error) {
	return r.list(ctx, applicationSelect+" WHERE a.project_id = $1 ORDER BY a.created_at ASC", projectID)
}

func (r *ApplicationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]application.Application, error) {
	return r.list(ctx, applicationSelect+" WHERE p.organization_id = $1 ORDER BY a.created_at DESC", organizationID)
}

func (r *ApplicationRepository) ListByDeveloper(ctx context.Context, developerID string) ([]application.Application, error) {
	return r.list(ctx, applicationSelect+" WHERE a.developer_id = $1 ORDER BY a.created_at DESC", developerID)
}

func (r *ApplicationRepository) FindLive(ctx context.Context, projectID, developerID string) (*application.Application, error) {
	return r.one(ctx,
		applicationSelect+" WHERE a.project_id = $1 AND a.developer_id = $2 AND a.status IN ('pending', 'accepted')",
		projectID, developerID)
}

func (r *ApplicationRepository) IsStatusManager(ctx context.Context, projectID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE project_id = $1 AND developer_id = $2 AND status = 'accepted' AND status_manager
		)
	`, projectID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking status manager: %w", err)
	}
	return ok, nil
}

func (r *ApplicationRepository) one(ctx context.Context, query string, args ...any) (*application.Application, error) {
	app, err := scanApplication(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting application: %w", err)
	}
	return app, nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...any) ([]application.Application, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	apps := []application.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating applications: %w", err)
	}
	return apps, nil
}

func scanApplication(row pgx.Row) (*application.Application, error) {
	var app application.Application
	var status string
	err := row.Scan(
		&app.ID, &app.ProjectID, &app.DeveloperID, &status, &app.StatusManager, &app.CoverLetter,
		&app.CreatedAt, &app.UpdatedAt, &app.DeveloperName, &app.ProjectTitle,
	)
	if err != nil {
		return nil, err
	}
	app.Status = application.Status(status)
	return &app, nil
}
