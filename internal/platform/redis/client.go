// Package redis wraps the go-redis client for the optional cache tier.
// Redis is never required for correctness here; when it is absent every
// consumer falls through to its backing store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"confreg/internal/platform/config"
)

// Client is the connected cache client handed to consumers.
type Client struct {
	*redis.Client
}

// New connects a client from config. An empty URL means "cache disabled" and
// yields a nil client without error; a configured but unreachable Redis is an
// error, since a half-working cache tier is worse than none.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection is usable, for the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
