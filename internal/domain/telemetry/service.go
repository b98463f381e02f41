package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultPopularLimit = 10
	maxPopularLimit     = 50
)

// Service serves the read side of search telemetry.
type Service struct {
	history    HistoryRepository
	popularity PopularityStore
	logger     *slog.Logger
}

// NewService creates a new telemetry service.
func NewService(history HistoryRepository, popularity PopularityStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, popularity: popularity, logger: logger}
}

// History returns a user's recent searches, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]SearchHistory, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	entries, err := s.history.ListByUser(ctx, userID, clamp(limit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	return entries, nil
}

// ClearHistory deletes a user's search history.
func (s *Service) ClearHistory(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrInvalidInput
	}
	n, err := s.history.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing search history: %w", err)
	}
	return n, nil
}

// Popular returns the most searched terms.
func (s *Service) Popular(ctx context.Context, limit int) ([]PopularSearch, error) {
	terms, err := s.popularity.Top(ctx, clamp(limit, defaultPopularLimit, maxPopularLimit))
	if err != nil {
		return nil, fmt.Errorf("listing popular searches: %w", err)
	}
	return terms, nil
}

// PruneHistory deletes history rows created before the cutoff.
func (s *Service) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.history.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("pruning search history: %w", err)
	}
	s.logger.Info("search history pruned", "deleted", n, "before", before)
	return n, nil
}

func clamp(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
