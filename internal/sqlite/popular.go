package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

// PopularityStore implements telemetry.PopularityStore for SQLite
type PopularityStore struct {
	db *DB
}

// NewPopularityStore creates a new PopularityStore
func NewPopularityStore(db *DB) *PopularityStore {
	return &PopularityStore{db: db}
}

// Increment inserts the term with a count of one or bumps its count, in one statement.
func (s *PopularityStore) Increment(ctx context.Context, term string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO popular_searches (term, search_count, last_searched)
		VALUES (?, 1, ?)
		ON CONFLICT(term) DO UPDATE SET
			search_count = search_count + 1,
			last_searched = excluded.last_searched
	`, term, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to increment popular search: %w", err)
	}
	return nil
}

// Top returns the most searched terms
func (s *PopularityStore) Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term, search_count, last_searched
		FROM popular_searches
		ORDER BY search_count DESC, last_searched DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular searches: %w", err)
	}
	defer rows.Close()

	terms := []telemetry.PopularSearch{}
	for rows.Next() {
		var ps telemetry.PopularSearch
		if err := rows.Scan(&ps.Term, &ps.SearchCount, &ps.LastSearched); err != nil {
			return nil, fmt.Errorf("failed to scan popular search: %w", err)
		}
		terms = append(terms, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular search rows: %w", err)
	}
	return terms, nil
}
