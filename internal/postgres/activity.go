package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/activity"
)

// ActivityRepository implements activity.Repository on PostgreSQL.
type ActivityRepository struct {
	db Querier
}

func NewActivityRepository(db Querier) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO team_activities (project_id, actor_id, activity_type, summary, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entry.ProjectID, entry.ActorID, string(entry.Type), entry.Summary, entry.Details, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT t.id, t.project_id, t.actor_id, t.activity_type, t.summary, t.details, t.created_at
		FROM team_activities t
		JOIN projects p ON p.id = t.project_id`

	var args []any
	var conditions []string
	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if opts.ProjectID != "" {
		add("t.project_id = $%d", opts.ProjectID)
	}
	if opts.OrganizationID != "" {
		add("p.organization_id = $%d", opts.OrganizationID)
	}
	if opts.Type != nil {
		add("t.activity_type = $%d", string(*opts.Type))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.Entry{}
	for rows.Next() {
		var entry activity.Entry
		var kind string
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.ActorID, &kind, &entry.Summary, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		entry.Type = activity.Type(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity: %w", err)
	}
	return entries, nil
}
