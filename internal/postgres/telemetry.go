package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// HistoryRepository implements telemetry.HistoryRepository on PostgreSQL.
type HistoryRepository struct {
	db Querier
}

func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *telemetry.SearchHistory) error {
	var filters []byte
	if len(entry.Filters) > 0 {
		filters = entry.Filters
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO search_history (id, user_id, search_term, filters, result_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.UserID, entry.SearchTerm, filters, entry.ResultCount, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending search history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]telemetry.SearchHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, search_term, filters, result_count, created_at
		FROM search_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	defer rows.Close()

	entries := []telemetry.SearchHistory{}
	for rows.Next() {
		var entry telemetry.SearchHistory
		var filters []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.SearchTerm, &filters, &entry.ResultCount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search history: %w", err)
		}
		if len(filters) > 0 {
			entry.Filters = json.RawMessage(filters)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search history: %w", err)
	}
	return entries, nil
}

func (r *HistoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing search history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *HistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_history WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("pruning search history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PopularityStore implements telemetry.PopularityStore on PostgreSQL.
type PopularityStore struct {
	db Querier
}

func NewPopularityStore(db Querier) *PopularityStore {
	return &PopularityStore{db: db}
}

// Increment inserts the term or bumps its counter in one statement.
func (s *PopularityStore) Increment(ctx context.Context, term string, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO popular_searches (term, search_count, last_searched)
		VALUES ($1, 1, $2)
		ON CONFLICT (term) DO UPDATE SET
			search_count = popular_searches.search_count + 1,
			last_searched = EXCLUDED.last_searched
	`, term, at)
	if err != nil {
		return fmt.Errorf("incrementing popular search: %w", err)
	}
	return nil
}

func (s *PopularityStore) Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	rows, err := s.db.Query(ctx, `
		SELECT term, search_count, last_searched
		FROM popular_searches
		ORDER BY search_count DESC, last_searched DESC, term ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing popular searches: %w", err)
	}
	defer rows.Close()

	terms := []telemetry.PopularSearch{}
	for rows.Next() {
		var ps telemetry.PopularSearch
		if err := rows.Scan(&ps.Term, &ps.SearchCount, &ps.LastSearched); err != nil {
			return nil, fmt.Errorf("scanning popular search: %w", err)
		}
		terms = append(terms, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating popular searches: %w", err)
	}
	return terms, nil
}

// AnalyticsSink implements telemetry.AnalyticsSink on PostgreSQL.
type AnalyticsSink struct {
	db Querier
}

func NewAnalyticsSink(db Querier) *AnalyticsSink {
	return &AnalyticsSink{db: db}
}

func (s *AnalyticsSink) Record(ctx context.Context, event *telemetry.AnalyticsEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO search_analytics (
			id, search_term, user_id, result_count, clicked_project_id, click_position, session_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, event.ID, event.SearchTerm, event.UserID, event.ResultCount, event.ClickedProjectID, event.ClickPosition, event.SessionID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording search analytics: %w", err)
	}
	return nil
}
