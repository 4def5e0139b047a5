// Package exchange converts listing prices between currencies using a
// cached snapshot of upstream exchange rates.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// ErrRateUnavailable is returned when the rate source cannot be reached or
// does not quote a requested currency.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

const (
	defaultBase    = "USD"
	defaultTTL     = time.Hour
	defaultTimeout = 10 * time.Second
	pricePlaces    = 2
)

// SnapshotStore persists snapshots across restarts. It is optional.
type SnapshotStore interface {
	SaveRateSnapshot(ctx context.Context, snap *domain.ExchangeRateSnapshot) error
	LatestRateSnapshot(ctx context.Context, base string) (*domain.ExchangeRateSnapshot, error)
}

// Converter holds at most one snapshot per process and replaces it
// wholesale once it is older than the TTL. Concurrent callers that find it
// stale share one fetch.
type Converter struct {
	source  RateSource
	store   SnapshotStore
	base    string
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	nowFunc func() time.Time

	mu    sync.RWMutex
	snap  *domain.ExchangeRateSnapshot
	group singleflight.Group
}

// ConverterOption configures the Converter.
type ConverterOption func(*Converter)

// WithBaseCurrency sets the currency snapshots are fetched against.
func WithBaseCurrency(code string) ConverterOption {
	return func(c *Converter) {
		if code != "" {
			c.base = strings.ToUpper(code)
		}
	}
}

// WithTTL sets how long a snapshot is served before it is refetched.
func WithTTL(d time.Duration) ConverterOption {
	return func(c *Converter) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithFetchTimeout bounds one snapshot fetch.
func WithFetchTimeout(d time.Duration) ConverterOption {
	return func(c *Converter) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSnapshotStore enables durable snapshots.
func WithSnapshotStore(s SnapshotStore) ConverterOption {
	return func(c *Converter) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) ConverterOption {
	return func(c *Converter) {
		c.nowFunc = f
	}
}

// NewConverter creates a Converter backed by source.
func NewConverter(source RateSource, opts ...ConverterOption) *Converter {
	c := &Converter{
		source:  source,
		base:    defaultBase,
		ttl:     defaultTTL,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the snapshot base currency.
func (c *Converter) Base() string {
	return c.base
}

// Convert expresses amount, given in from, in to. Equal currencies return
// amount unchanged without consulting the snapshot. Otherwise the pair rate
// is derived through the base currency and the result is rounded half-up
// to two places.
func (c *Converter) Convert(
	ctx context.Context,
	amount decimal.Decimal,
	from, to string,
) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	snap, err := c.Snapshot(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	fromRate, ok := snap.Rate(from)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, from)
	}
	toRate, ok := snap.Rate(to)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, to)
	}

	return amount.
		Mul(decimal.NewFromFloat(toRate)).
		Div(decimal.NewFromFloat(fromRate)).
		Round(pricePlaces), nil
}

// Snapshot returns the current snapshot, fetching a new one when it is
// absent or older than the TTL. A failed fetch leaves the previous snapshot
// in place and returns ErrRateUnavailable.
func (c *Converter) Snapshot(ctx context.Context) (*domain.ExchangeRateSnapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}
	return c.refresh(ctx, false)
}

// Refresh fetches a new snapshot regardless of the age of the current one.
func (c *Converter) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, true)
	return err
}

func (c *Converter) fresh() (*domain.ExchangeRateSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap != nil && c.snap.Age(c.nowFunc()) <= c.ttl {
		return c.snap, true
	}
	return nil, false
}

func (c *Converter) refresh(ctx context.Context, force bool) (*domain.ExchangeRateSnapshot, error) {
	ch := c.group.DoChan(c.base, func() (any, error) {
		if !force {
			if snap, ok := c.fresh(); ok {
				return snap, nil
			}
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		if !force {
			if snap := c.loadStored(fctx); snap != nil {
				c.install(snap)
				return snap, nil
			}
		}

		snap, err := c.source.Latest(fctx, c.base)
		if err != nil {
			metrics.RateFetchesTotal.WithLabelValues("failure").Inc()
			c.logger.Warn("exchange rate fetch failed", "base", c.base, "error", err)
			if !errors.Is(err, ErrRateUnavailable) {
				err = fmt.Errorf("%w: %w", ErrRateUnavailable, err)
			}
			return nil, err
		}
		metrics.RateFetchesTotal.WithLabelValues("success").Inc()

		c.install(snap)
		c.persist(fctx, snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRateUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		snap, _ := res.Val.(*domain.ExchangeRateSnapshot) //nolint:errcheck // only snapshots are stored
		return snap, nil
	}
}

func (c *Converter) install(snap *domain.ExchangeRateSnapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	metrics.RateSnapshotFetchedAt.Set(float64(snap.FetchedAt.Unix()))
}

// loadStored returns the newest persisted snapshot if it is still within
// the TTL. Store failures are logged and ignored.
func (c *Converter) loadStored(ctx context.Context) *domain.ExchangeRateSnapshot {
	if c.store == nil {
		return nil
	}
	c.mu.RLock()
	have := c.snap != nil
	c.mu.RUnlock()
	if have {
		return nil
	}

	snap, err := c.store.LatestRateSnapshot(ctx, c.base)
	if err != nil {
		c.logger.Warn("loading stored rate snapshot", "base", c.base, "error", err)
		return nil
	}
	if snap == nil || snap.Age(c.nowFunc()) > c.ttl {
		return nil
	}
	c.logger.Info("using stored rate snapshot", "base", c.base, "fetched_at", snap.FetchedAt)
	return snap
}

func (c *Converter) persist(ctx context.Context, snap *domain.ExchangeRateSnapshot) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveRateSnapshot(ctx, snap); err != nil {
		c.logger.Warn("saving rate snapshot", "base", snap.Base, "error", err)
	}
}
