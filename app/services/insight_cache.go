// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// InsightCache is a short-TTL JSON cache for computed insights (metric results,
// segment previews). A disabled cache is a valid configuration; callers treat
// a miss and a disabled cache identically.
type InsightCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// redisInsightCache implements InsightCache on Redis
type redisInsightCache struct {
	client *redis.Client
	prefix string
}

// NewInsightCache creates a Redis-backed insight cache
func NewInsightCache(client *redis.Client, prefix string) InsightCache {
	return &redisInsightCache{
		client: client,
		prefix: prefix,
	}
}

// Get reads a cached JSON value into dest; returns false on a miss
func (c *redisInsightCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("cache value decode failed: %w", err)
	}
	return true, nil
}

// Set stores a JSON-encoded value with a TTL
func (c *redisInsightCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache value encode failed: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete removes a cached value
func (c *redisInsightCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// noopInsightCache implements InsightCache when caching is disabled
type noopInsightCache struct{}

// NewNoopInsightCache creates a cache that never hits
func NewNoopInsightCache() InsightCache {
	return &noopInsightCache{}
}

func (noopInsightCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (noopInsightCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (noopInsightCache) Delete(ctx context.Context, key string) error {
	return nil
}
