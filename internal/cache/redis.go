// Package cache wraps the Redis connection used for short-lived values:
// dashboard stats and the exchange rate. Every caller treats the cache as
// best-effort; a miss or a Redis outage just means recomputing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin wrapper over a Redis client.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

// Close releases the connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON loads a cached value into out. Returns false on miss or error; a
// broken cache never fails a request.
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON stores a value with a TTL. Errors are ignored for the same reason.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}
