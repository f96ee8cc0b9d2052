// Package cache keeps computed lair calendars in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bnbillains:occupied:lair:"

// OccupancyCache stores the occupied-dates list of a lair as a JSON array of
// "YYYY-MM-DD" strings.
type OccupancyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOccupancyCache(client *redis.Client, ttl time.Duration) *OccupancyCache {
	return &OccupancyCache{client: client, ttl: ttl}
}

func key(lairID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, lairID)
}

// Get reports a miss with ok=false and a nil error.
func (c *OccupancyCache) Get(ctx context.Context, lairID uint) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, key(lairID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, false, fmt.Errorf("decode cached calendar for lair %d: %w", lairID, err)
	}
	return dates, true, nil
}

func (c *OccupancyCache) Set(ctx context.Context, lairID uint, dates []string) error {
	if dates == nil {
		dates = []string{}
	}
	raw, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(lairID), raw, c.ttl).Err()
}

func (c *OccupancyCache) Invalidate(ctx context.Context, lairIDs ...uint) error {
	if len(lairIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lairIDs))
	for _, id := range lairIDs {
		keys = append(keys, key(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
