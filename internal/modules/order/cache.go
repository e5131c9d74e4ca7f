// README: Best-effort Redis read cache for order lookups. Short TTL, dropped
// on every write to the same order. A nil *Cache disables caching.
package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chauffeur/internal/types"
)

type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redis *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redis, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, id types.ID) (*Order, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (c *Cache) Set(ctx context.Context, o *Order) {
	if c == nil {
		return
	}
	data, err := json.Marshal(o)
	if err != nil {
		return
	}
	c.redis.Set(ctx, cacheKey(o.ID), data, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, id types.ID) {
	if c == nil {
		return
	}
	c.redis.Del(ctx, cacheKey(id))
}

func cacheKey(id types.ID) string {
	return "order:" + string(id)
}
