package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/repository"
)

// ProfileRepository implements profile.Repository for SQLite
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert inserts a profile or updates its editable fields. created_at is kept on update.
func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	skills, err := encodeList(p.Skills)
	if err != nil {
		return fmt.Errorf("failed to encode skills: %w", err)
	}

	query := `
		INSERT INTO profiles (id, full_name, role, organization_name, skills, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			role = excluded.role,
			organization_name = excluded.organization_name,
			skills = excluded.skills,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.FullName,
		p.Role,
		p.OrganizationName,
		skills,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by ID
func (r *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	query := `
		SELECT id, full_name, role, organization_name, skills, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`

	var p profile.Profile
	var skills string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.FullName,
		&p.Role,
		&p.OrganizationName,
		&skills,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if p.Skills, err = decodeList(skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills: %w", err)
	}
	return &p, nil
}
