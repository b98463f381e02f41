package sqlite

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	for i, term := range []string{"react", "python", "go"} {
		require.NoError(t, repo.Append(ctx, &telemetry.SearchHistory{
			ID:          term,
			UserID:      "dev1",
			SearchTerm:  term,
			Filters:     json.RawMessage(`{"status":["open"]}`),
			ResultCount: i,
			CreatedAt:   seedTime.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}
	require.NoError(t, repo.Append(ctx, &telemetry.SearchHistory{
		ID: "other", UserID: "dev2", SearchTerm: "rust", CreatedAt: seedTime,
	}))

	entries, err := repo.ListByUser(ctx, "dev1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "go", entries[0].SearchTerm)
	require.JSONEq(t, `{"status":["open"]}`, string(entries[0].Filters))

	pruned, err := repo.DeleteBefore(ctx, seedTime.Add(36*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3), pruned)

	cleared, err := repo.DeleteByUser(ctx, "dev1")
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	entries, err = repo.ListByUser(ctx, "dev1", 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPopularityStore_ConcurrentIncrements(t *testing.T) {
	t.Run("memory", func(t *testing.T) { testConcurrentIncrements(t, NewTestDB(t)) })
	t.Run("file", func(t *testing.T) { testConcurrentIncrements(t, NewFileTestDB(t)) })
}

func testConcurrentIncrements(t *testing.T, db *DB) {
	store := NewPopularityStore(db)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Increment(ctx, "react", seedTime.Add(time.Duration(i)*time.Second))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, store.Increment(ctx, "python", seedTime))

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "react", top[0].Term)
	require.Equal(t, int64(n), top[0].SearchCount)
	require.Equal(t, int64(1), top[1].SearchCount)

	top, err = store.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestAnalyticsSink_Record(t *testing.T) {
	db := NewTestDB(t)
	sink := NewAnalyticsSink(db)
	ctx := context.Background()

	project := "p1"
	position := 2
	require.NoError(t, sink.Record(ctx, &telemetry.AnalyticsEvent{
		ID:               "e1",
		SearchTerm:       "react",
		ResultCount:      7,
		ClickedProjectID: &project,
		ClickPosition:    &position,
		CreatedAt:        seedTime,
	}))

	var userID, clicked *string
	var pos *int
	err := db.QueryRowContext(ctx,
		`SELECT user_id, clicked_project_id, click_position FROM search_analytics WHERE id = ?`, "e1",
	).Scan(&userID, &clicked, &pos)
	require.NoError(t, err)
	require.Nil(t, userID)
	require.Equal(t, "p1", *clicked)
	require.Equal(t, 2, *pos)
}
