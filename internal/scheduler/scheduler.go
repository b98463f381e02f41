// Package scheduler runs the periodic search history retention job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// HistoryPruner deletes search history older than a cutoff.
type HistoryPruner interface {
	PruneHistory(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler wraps robfig/cron and owns the retention job.
type Scheduler struct {
	cron      *cron.Cron
	pruner    HistoryPruner
	spec      string
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Scheduler that prunes history older than retention on spec,
// e.g. "@daily" or "@every 6h".
func New(pruner HistoryPruner, spec string, retention time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		pruner:    pruner,
		spec:      spec,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.retention <= 0 {
		return fmt.Errorf("history retention must be positive, got %s", s.retention)
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("history prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("history retention scheduled", "spec", s.spec, "retention", s.retention)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("history retention stopped")
}

// RunOnce prunes history now.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention).UTC()
	n, err := s.pruner.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning history before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.Info("history pruned", "deleted", n, "before", cutoff)
	return n, nil
}
