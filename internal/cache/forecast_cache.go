package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// DefaultForecastTTL is used when the configured TTL is zero.
const DefaultForecastTTL = 24 * time.Hour

// ForecastCache keeps the latest forecast run of each shop.
type ForecastCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewForecastCache creates a new ForecastCache.
func NewForecastCache(redis *RedisClient, ttl time.Duration) *ForecastCache {
	if ttl <= 0 {
		ttl = DefaultForecastTTL
	}
	return &ForecastCache{
		redis: redis,
		ttl:   ttl,
	}
}

// keyLatest returns the Redis key for the latest run of a shop.
func (c *ForecastCache) keyLatest(shopID string) string {
	return fmt.Sprintf("forecast:latest:%s", shopID)
}

// SetLatest replaces the cached run of run.ShopID.
func (c *ForecastCache) SetLatest(ctx context.Context, run *models.ForecastRun) error {
	if err := c.redis.SetJSON(ctx, c.keyLatest(run.ShopID), run, c.ttl); err != nil {
		return fmt.Errorf("failed to cache forecast run: %w", err)
	}
	return nil
}

// GetLatest returns the cached run of a shop, or utils.ErrForecastNotCached.
func (c *ForecastCache) GetLatest(ctx context.Context, shopID string) (*models.ForecastRun, error) {
	var run models.ForecastRun
	found, err := c.redis.GetJSON(ctx, c.keyLatest(shopID), &run)
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast run: %w", err)
	}
	if !found {
		return nil, utils.ErrForecastNotCached
	}
	return &run, nil
}
