package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GulovM/ToDo-Master/internal/domain"
	"github.com/google/uuid"
)

const (
	statsCachePrefix = "stats:"
	statsCacheTTL    = 5 * time.Minute
)

// StatsCache caches per-user task statistics in Redis
type StatsCache struct {
	client *Client
}

// NewStatsCache creates a new stats cache
func NewStatsCache(client *Client) *StatsCache {
	return &StatsCache{client: client}
}

// Get retrieves cached statistics for a user
func (c *StatsCache) Get(ctx context.Context, userID uuid.UUID) (*domain.TaskStats, error) {
	key := fmt.Sprintf("%s%s", statsCachePrefix, userID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var stats domain.TaskStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	return &stats, nil
}

// Set caches statistics for a user
func (c *StatsCache) Set(ctx context.Context, userID uuid.UUID, stats *domain.TaskStats) error {
	key := fmt.Sprintf("%s%s", statsCachePrefix, userID.String())

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, statsCacheTTL).Err()
}

// Invalidate removes cached statistics for a user. Called after any
// task mutation so stale counts never outlive the change.
func (c *StatsCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", statsCachePrefix, userID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
