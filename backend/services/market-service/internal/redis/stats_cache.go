package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"arbigrid/backend/services/market-service/internal/ledger"
)

const marketStatsKey = "market:stats"

// ErrCacheMiss is returned when no cached stats exist.
var ErrCacheMiss = errors.New("redisstore: cache miss")

// StatsCache keeps the latest market statistics for cheap reads.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache returns redis-backed cache.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Save caches stats.
func (s *StatsCache) Save(ctx context.Context, stats ledger.MarketStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, marketStatsKey, data, s.ttl).Err()
}

// Get returns cached stats or ErrCacheMiss.
func (s *StatsCache) Get(ctx context.Context) (*ledger.MarketStats, error) {
	result, err := s.client.Get(ctx, marketStatsKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var stats ledger.MarketStats
	if err := json.Unmarshal([]byte(result), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Invalidate drops cached stats after a trade changes them.
func (s *StatsCache) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, marketStatsKey).Err()
}
