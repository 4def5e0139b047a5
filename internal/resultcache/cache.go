// Package resultcache keeps the most recent search result set per session
// so it can be exported later.
package resultcache

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// ErrCacheMiss is returned when a session has no cached results.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores one result set per session key. Set replaces whatever the
// session held before.
type Cache interface {
	Get(ctx context.Context, session string) (*domain.CachedResults, error)
	Set(ctx context.Context, session string, results *domain.CachedResults) error
}
