// Package store defines the datastore abstraction for product-aggregator.
// Persistence is optional: it holds exchange rate snapshots so a cold
// process can reuse a recent one, and the locks that keep scheduled jobs
// from running on several replicas at once.
package store

import (
	"context"
	"time"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// SnapshotQuery defines optional filters for snapshot history queries.
type SnapshotQuery struct {
	Base   *string
	Since  *time.Time
	Limit  int // default 24
	Offset int
}

// Store defines all data access operations for product-aggregator.
type Store interface {
	// Rate snapshots
	SaveRateSnapshot(ctx context.Context, snap *domain.ExchangeRateSnapshot) error
	LatestRateSnapshot(ctx context.Context, base string) (*domain.ExchangeRateSnapshot, error)
	ListRateSnapshots(ctx context.Context, q *SnapshotQuery) ([]domain.ExchangeRateSnapshot, int, error)
	PruneRateSnapshots(ctx context.Context, olderThan time.Duration) (int, error)

	// Scheduler
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
