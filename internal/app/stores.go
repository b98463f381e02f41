package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/civicmatch/internal/config"
	"github.com/rpggio/civicmatch/internal/domain/activity"
	"github.com/rpggio/civicmatch/internal/domain/application"
	"github.com/rpggio/civicmatch/internal/domain/profile"
	"github.com/rpggio/civicmatch/internal/domain/project"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
	"github.com/rpggio/civicmatch/internal/mq"
	"github.com/rpggio/civicmatch/internal/postgres"
	"github.com/rpggio/civicmatch/internal/redis"
	"github.com/rpggio/civicmatch/internal/sqlite"
)

// Stores holds the repositories for one storage backend plus the optional
// Redis popularity counter and AMQP analytics publisher.
type Stores struct {
	Profiles     profile.Repository
	Projects     project.Repository
	Applications application.Repository
	Activities   activity.Repository
	History      telemetry.HistoryRepository
	Popularity   telemetry.PopularityStore
	Analytics    []telemetry.AnalyticsSink

	closers []func() error
}

// Close releases every connection opened by OpenStores, newest first.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// OpenStores connects to the configured database, applies migrations and
// attaches the optional Redis and AMQP backends.
func OpenStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stores, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stores{}

	var err error
	switch cfg.DB.Driver {
	case "postgres":
		err = s.openPostgres(ctx, cfg.DB.URL)
	default:
		err = s.openSQLite(cfg.DB.Path)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", cfg.DB.Driver)

	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.Popularity = redis.NewPopularityStore(client, cfg.Redis.Prefix)
		logger.Info("popular searches kept in redis")
	}

	if cfg.AMQP.URL != "" {
		publisher, err := mq.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() error {
			publisher.Close()
			return nil
		})
		s.Analytics = append(s.Analytics, publisher)
		logger.Info("search analytics published", "exchange", cfg.AMQP.Exchange)
	}

	return s, nil
}

func (s *Stores) openSQLite(path string) error {
	if err := ensureDBDir(path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, db.Close)
	if err := db.RunMigrations(); err != nil {
		return err
	}

	s.Profiles = sqlite.NewProfileRepository(db)
	s.Projects = sqlite.NewProjectRepository(db)
	s.Applications = sqlite.NewApplicationRepository(db)
	s.Activities = sqlite.NewActivityRepository(db)
	s.History = sqlite.NewHistoryRepository(db)
	s.Popularity = sqlite.NewPopularityStore(db)
	s.Analytics = []telemetry.AnalyticsSink{sqlite.NewAnalyticsSink(db)}
	return nil
}

func (s *Stores) openPostgres(ctx context.Context, url string) error {
	pool, err := postgres.NewPool(ctx, url)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() error {
		pool.Close()
		return nil
	})
	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	s.Profiles = postgres.NewProfileRepository(pool)
	s.Projects = postgres.NewProjectRepository(pool)
	s.Applications = postgres.NewApplicationRepository(pool)
	s.Activities = postgres.NewActivityRepository(pool)
	s.History = postgres.NewHistoryRepository(pool)
	s.Popularity = postgres.NewPopularityStore(pool)
	s.Analytics = []telemetry.AnalyticsSink{postgres.NewAnalyticsSink(pool)}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
