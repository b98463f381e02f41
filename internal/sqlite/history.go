package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// HistoryRepository implements telemetry.HistoryRepository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts a search history entry
func (r *HistoryRepository) Append(ctx context.Context, entry *telemetry.SearchHistory) error {
	var filters any
	if len(entry.Filters) > 0 {
		filters = string(entry.Filters)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_history (id, user_id, search_term, filters, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.SearchTerm, filters, entry.ResultCount, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append search history: %w", err)
	}
	return nil
}

// ListByUser returns a user's most recent searches, newest first
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, search_term, filters, result_count, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer rows.Close()

	entries := []telemetry.SearchHistory{}
	for rows.Next() {
		var entry telemetry.SearchHistory
		var filters sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SearchTerm,
			&filters,
			&entry.ResultCount,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		if filters.Valid {
			entry.Filters = json.RawMessage(filters.String)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search history rows: %w", err)
	}
	return entries, nil
}

// DeleteByUser removes every history entry of a user
func (r *HistoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}
	return result.RowsAffected()
}

// DeleteBefore removes history entries older than before
func (r *HistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune search history: %w", err)
	}
	return result.RowsAffected()
}
