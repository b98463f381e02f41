package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestService_HistoryClampsLimit(t *testing.T) {
	ctx := context.Background()
	history := &mocks.HistoryRepository{}
	svc := telemetry.NewService(history, &mocks.PopularityStore{}, nil)

	history.On("ListByUser", ctx, "dev1", 20).Return([]telemetry.SearchHistory{{SearchTerm: "react"}}, nil).Once()
	history.On("ListByUser", ctx, "dev1", 100).Return([]telemetry.SearchHistory{}, nil).Once()

	entries, err := svc.History(ctx, "dev1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.History(ctx, "dev1", 5000)
	require.NoError(t, err)

	_, err = svc.History(ctx, " ", 10)
	require.ErrorIs(t, err, telemetry.ErrInvalidInput)
	history.AssertExpectations(t)
}

func TestService_PopularAndPrune(t *testing.T) {
	ctx := context.Background()
	history := &mocks.HistoryRepository{}
	popularity := &mocks.PopularityStore{}
	svc := telemetry.NewService(history, popularity, nil)

	popularity.On("Top", ctx, 10).Return([]telemetry.PopularSearch{{Term: "react", SearchCount: 2}}, nil).Once()
	cutoff := time.Now().Add(-90 * 24 * time.Hour)
	history.On("DeleteBefore", ctx, cutoff).Return(int64(3), nil).Once()
	history.On("DeleteByUser", ctx, "dev1").Return(int64(2), nil).Once()

	terms, err := svc.Popular(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), terms[0].SearchCount)

	n, err := svc.PruneHistory(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = svc.ClearHistory(ctx, "dev1")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
