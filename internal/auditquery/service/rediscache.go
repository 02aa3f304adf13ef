package service

import (
	"context"
	"time"

	platformredis "confreg/internal/platform/redis"
)

// RedisStatsCache adapts the platform Redis client to the StatsCache
// interface. Cache errors read as misses and failed writes are dropped: the
// cache is an optimization, never a dependency.
type RedisStatsCache struct {
	client *platformredis.Client
}

// NewRedisStatsCache returns nil when the client is nil (Redis not
// configured); callers skip the cache option in that case.
func NewRedisStatsCache(client *platformredis.Client) *RedisStatsCache {
	if client == nil {
		return nil
	}
	return &RedisStatsCache{client: client}
}

func (c *RedisStatsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = c.client.Set(ctx, key, value, ttl).Err()
}
