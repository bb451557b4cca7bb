// Package cache provides a small JSON cache on Redis for the read-side
// occupancy aggregates. A nil *Client is valid and disables caching, so
// callers never branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys for the occupancy aggregates. The allocation coordinator
// invalidates these after every committed state change.
const (
	KeyWardOccupancy  = "occupancy:wards"
	KeyBedStats       = "occupancy:beds"
	KeyAdmissionStats = "occupancy:admissions"
)

// Client wraps a Redis connection with a fixed TTL for cached entries.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis using a redis:// URL and verifies the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetJSON loads the value stored under key into dest. The second return is
// false on a cache miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key with the client's TTL.
func (c *Client) SetJSON(ctx context.Context, key string, v interface{}) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate removes the given keys. Missing keys are not an error.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
