package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pruneFunc func(ctx context.Context, before time.Time) (int64, error)

func (f pruneFunc) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	return f(ctx, before)
}

func TestRunOnce_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var got time.Time
	s := New(pruneFunc(func(_ context.Context, before time.Time) (int64, error) {
		got = before
		return 7, nil
	}), "@daily", 30*24*time.Hour, nil)
	s.now = func() time.Time { return now }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.True(t, got.Equal(now.Add(-30*24*time.Hour)))
}

func TestRunOnce_PropagatesError(t *testing.T) {
	s := New(pruneFunc(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db locked")
	}), "@daily", time.Hour, nil)

	_, err := s.RunOnce(context.Background())
	require.ErrorContains(t, err, "db locked")
}

func TestStart_Validates(t *testing.T) {
	noop := pruneFunc(func(context.Context, time.Time) (int64, error) { return 0, nil })

	require.Error(t, New(noop, "@daily", 0, nil).Start(context.Background()))
	require.Error(t, New(noop, "not a spec", time.Hour, nil).Start(context.Background()))

	s := New(noop, "@every 1h", time.Hour, nil)
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
