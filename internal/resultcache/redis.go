package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const defaultKeyPrefix = "pa:results:"

// RedisCache is a Cache shared between server replicas. Results are stored
// as JSON under one key per session.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithRedisTTL sets the key expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the prefix prepended to session keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// NewRedisCache creates a RedisCache over an existing client.
func NewRedisCache(client redis.UniversalClient, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    defaultTTL,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get loads the session's results.
func (c *RedisCache) Get(ctx context.Context, session string) (*domain.CachedResults, error) {
	data, err := c.client.Get(ctx, c.key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var results domain.CachedResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decoding cached results: %w", err)
	}
	return &results, nil
}

// Set stores the session's results with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, session string, results *domain.CachedResults) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding cached results: %w", err)
	}
	if err := c.client.Set(ctx, c.key(session), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) key(session string) string {
	return c.prefix + session
}
