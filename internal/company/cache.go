package company

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "company:profile"

// Cache keeps the saved profile in Redis so quotation creation does not hit
// Postgres on every request. A nil client degrades to pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached profile, or redis.Nil-equivalent miss as (nil, nil).
func (c *Cache) Get(ctx context.Context) (*Profile, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// Treat a corrupt entry as a miss; it will be rewritten.
		return nil, nil
	}
	return &p, nil
}

// Set stores the profile with the configured TTL.
func (c *Cache) Set(ctx context.Context, p Profile) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached profile after a save.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey).Err()
}
