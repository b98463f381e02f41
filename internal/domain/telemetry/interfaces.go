package telemetry

import (
	"context"
	"time"
)

// HistoryRepository stores per-user search history.
type HistoryRepository interface {
	Append(ctx context.Context, entry *SearchHistory) error
	ListByUser(ctx context.Context, userID string, limit int) ([]SearchHistory, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PopularityStore keeps the per-term search counter. Increment must be a single
// atomic insert-or-increment.
type PopularityStore interface {
	Increment(ctx context.Context, term string, at time.Time) error
	Top(ctx context.Context, limit int) ([]PopularSearch, error)
}

// AnalyticsSink receives analytics events. Writes are fire-and-forget.
type AnalyticsSink interface {
	Record(ctx context.Context, event *AnalyticsEvent) error
}
