package resultcache

import (
	"context"
	"sync"
	"time"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const defaultTTL = 30 * time.Minute

type memoryEntry struct {
	results   domain.CachedResults
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Entries expire after the configured
// TTL; expired entries are swept on every Set.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryTTL sets how long a session's results are kept.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMemoryNowFunc overrides the clock (for testing).
func WithMemoryNowFunc(fn func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.nowFunc = fn
	}
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     defaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the session's results.
func (c *MemoryCache) Get(_ context.Context, session string) (*domain.CachedResults, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[session]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !c.nowFunc().Before(e.expiresAt) {
		delete(c.entries, session)
		return nil, ErrCacheMiss
	}

	out := e.results
	out.Products = append([]domain.NormalizedProduct(nil), e.results.Products...)
	return &out, nil
}

// Set replaces the session's results.
func (c *MemoryCache) Set(_ context.Context, session string, results *domain.CachedResults) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}

	stored := *results
	stored.Products = append([]domain.NormalizedProduct(nil), results.Products...)
	c.entries[session] = memoryEntry{results: stored, expiresAt: now.Add(c.ttl)}
	return nil
}

// Len reports the number of live and not yet swept entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
