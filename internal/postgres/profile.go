package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/repository"
)

// ProfileRepository implements profile.Repository on PostgreSQL.
type ProfileRepository struct {
	db Querier
}

func NewProfileRepository(db Querier) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, full_name, role, organization_name, skills, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			organization_name = EXCLUDED.organization_name,
			skills = EXCLUDED.skills,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.FullName, string(p.Role), p.OrganizationName, skills, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	var p profile.Profile
	var role string
	err := r.db.QueryRow(ctx, `
		SELECT id, full_name, role, organization_name, skills, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.FullName, &role, &p.OrganizationName, &p.Skills, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	p.Role = profile.Role(role)
	return &p, nil
}
