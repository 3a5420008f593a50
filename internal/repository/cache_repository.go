package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

const activeListKey = "bagdesk:active_checkins"

// ActiveListCache keeps the dashboard's active-checkin list in Redis for a
// short TTL so repeated polling does not hit PostgreSQL every time.
type ActiveListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveListCache constructs an ActiveListCache.
func NewActiveListCache(client *redis.Client, ttl time.Duration) *ActiveListCache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &ActiveListCache{client: client, ttl: ttl}
}

// Get returns the cached list and whether the lookup was a hit. Cache errors
// are treated as misses.
func (c *ActiveListCache) Get(ctx context.Context) ([]models.BagCheckinDetail, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, activeListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var details []models.BagCheckinDetail
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, false
	}
	return details, true
}

// Set stores the list with the configured TTL.
func (c *ActiveListCache) Set(ctx context.Context, details []models.BagCheckinDetail) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, activeListKey, raw, c.ttl).Err()
}

// Invalidate drops the cached list after a lifecycle commit.
func (c *ActiveListCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, activeListKey).Err()
}
