package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// AnalyticsSink implements telemetry.AnalyticsSink for SQLite
type AnalyticsSink struct {
	db *DB
}

// NewAnalyticsSink creates a new AnalyticsSink
func NewAnalyticsSink(db *DB) *AnalyticsSink {
	return &AnalyticsSink{db: db}
}

// Record appends an analytics event
func (s *AnalyticsSink) Record(ctx context.Context, event *telemetry.AnalyticsEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_analytics (
			id, search_term, user_id, result_count, clicked_project_id, click_position, session_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.SearchTerm,
		event.UserID,
		event.ResultCount,
		event.ClickedProjectID,
		event.ClickPosition,
		event.SessionID,
		event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record search analytics: %w", err)
	}
	return nil
}
