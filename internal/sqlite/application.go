package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/repository"
)

const applicationColumns = `
	a.id, a.project_id, a.developer_id, a.status, a.status_manager, a.cover_letter,
	a.created_at, a.updated_at,
	COALESCE(d.full_name, '') AS developer_name,
	COALESCE(p.title, '') AS project_title
FROM applications a
LEFT JOIN profiles d ON d.id = a.developer_id
LEFT JOIN projects p ON p.id = a.project_id`

// ApplicationRepository implements application.Repository for SQLite
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application. A second live application from the same
// developer to the same project violates idx_applications_live.
func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications (
			id, project_id, developer_id, status, status_manager, cover_letter, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.ProjectID,
		app.DeveloperID,
		app.Status,
		app.StatusManager,
		app.CoverLetter,
		app.CreatedAt.UTC(),
		app.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// Get retrieves an application by ID
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+applicationColumns+" WHERE a.id = ?", id)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// UpdateStatus moves an application to a new status
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status application.Status, statusManager bool, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, status_manager = ?, updated_at = ? WHERE id = ?`,
		status, statusManager, updatedAt.UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update application: %w", err)
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

// Accept moves a pending application to accepted while the project has room.
// The count and the update run as one statement, so SQLite's write lock keeps
// concurrent accepts from overfilling a team.
func (r *ApplicationRepository) Accept(ctx context.Context, id string, maxTeamSize int, acceptedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE applications SET status = 'accepted', status_manager = 0, updated_at = ?
		WHERE id = ? AND status = 'pending'
		  AND (? <= 0 OR (
			SELECT COUNT(*) FROM applications m
			WHERE m.project_id = applications.project_id AND m.status = 'accepted'
		  ) < ?)
	`, acceptedAt.UTC(), id, maxTeamSize, maxTeamSize)
	if err != nil {
		return fmt.Errorf("failed to accept application: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// SetStatusManager flips status-manager rights on an accepted application.
func (r *ApplicationRepository) SetStatusManager(ctx context.Context, id string, statusManager bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status_manager = ? WHERE id = ? AND status = 'accepted'`,
		statusManager, id)
	if err != nil {
		return fmt.Errorf("failed to update status manager: %w", err)
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

func (r *ApplicationRepository) missingOrConflict(ctx context.Context, id string) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check application: %w", err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// ListByProject returns a project's applications, oldest first
func (r *ApplicationRepository) ListByProject(ctx context.Context, projectID string) ([]application.Application, error) {
	return r.list(ctx, "SELECT "+applicationColumns+" WHERE a.project_id = ? ORDER BY a.created_at ASC", projectID)
}

// ListByOrganization returns applications to every project an organization owns, newest first
func (r *ApplicationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]application.Application, error) {
	return r.list(ctx, "SELECT "+applicationColumns+" WHERE p.organization_id = ? ORDER BY a.created_at DESC", organizationID)
}

// ListByDeveloper returns a developer's applications, newest first
func (r *ApplicationRepository) ListByDeveloper(ctx context.Context, developerID string) ([]application.Application, error) {
	return r.list(ctx, "SELECT "+applicationColumns+" WHERE a.developer_id = ? ORDER BY a.created_at DESC", developerID)
}

// FindLive returns the pending or accepted application of a developer to a project
func (r *ApplicationRepository) FindLive(ctx context.Context, projectID, developerID string) (*application.Application, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" WHERE a.project_id = ? AND a.developer_id = ? AND a.status IN ('pending', 'accepted')",
		projectID, developerID)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return app, nil
}

// IsStatusManager reports whether userID is an accepted member with status rights on projectID
func (r *ApplicationRepository) IsStatusManager(ctx context.Context, projectID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE project_id = ? AND developer_id = ? AND status = 'accepted' AND status_manager = 1
	`, projectID, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check status manager: %w", err)
	}
	return count > 0, nil
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...any) ([]application.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []application.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return apps, nil
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var app application.Application
	err := row.Scan(
		&app.ID,
		&app.ProjectID,
		&app.DeveloperID,
		&app.Status,
		&app.StatusManager,
		&app.CoverLetter,
		&app.CreatedAt,
		&app.UpdatedAt,
		&app.DeveloperName,
		&app.ProjectTitle,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
