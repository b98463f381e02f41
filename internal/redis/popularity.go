package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rpggio/civicmatch/internal/domain/telemetry"
)

const defaultPrefix = "civicmatch:popular"

// PopularityStore implements telemetry.PopularityStore with a sorted set of
// counts and a hash of last-searched timestamps.
type PopularityStore struct {
	client   goredis.Cmdable
	countKey string
	lastKey  string
}

// NewPopularityStore creates a store under prefix. An empty prefix uses the default.
func NewPopularityStore(client goredis.Cmdable, prefix string) *PopularityStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &PopularityStore{
		client:   client,
		countKey: prefix + ":counts",
		lastKey:  prefix + ":last",
	}
}

// Increment bumps the term's count and last-searched time in one MULTI block.
func (s *PopularityStore) Increment(ctx context.Context, term string, at time.Time) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZIncrBy(ctx, s.countKey, 1, term)
		pipe.HSet(ctx, s.lastKey, term, at.UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return fmt.Errorf("incrementing popular search: %w", err)
	}
	return nil
}

// Top returns the highest-count terms. Ties come back in reverse lexical order.
func (s *PopularityStore) Top(ctx context.Context, limit int) ([]telemetry.PopularSearch, error) {
	if limit <= 0 {
		return []telemetry.PopularSearch{}, nil
	}
	scored, err := s.client.ZRevRangeWithScores(ctx, s.countKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing popular searches: %w", err)
	}
	terms := make([]telemetry.PopularSearch, 0, len(scored))
	if len(scored) == 0 {
		return terms, nil
	}

	members := make([]string, len(scored))
	for i, z := range scored {
		members[i], _ = z.Member.(string)
	}
	stamps, err := s.client.HMGet(ctx, s.lastKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading last searched times: %w", err)
	}

	for i, z := range scored {
		ps := telemetry.PopularSearch{Term: members[i], SearchCount: int64(z.Score)}
		if raw, ok := stamps[i].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				ps.LastSearched = t
			}
		}
		terms = append(terms, ps)
	}
	return terms, nil
}
