package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/product-aggregator/internal/store"
)

const (
	jobRatesWarmup    = "rates_warmup"
	jobSnapshotPrune  = "rate_snapshot_prune"
	jobQuotaSync      = "ebay_quota_sync"
	defaultJobTimeout = 30 * time.Second
)

// RateRefresher forces a new exchange rate snapshot. exchange.Converter
// satisfies it.
type RateRefresher interface {
	Refresh(ctx context.Context) error
}

// QuotaSyncer pulls the upstream view of the daily call budget into the
// local limiter. ebay.QuotaSync satisfies it.
type QuotaSyncer interface {
	SyncQuota(ctx context.Context) error
}

// Scheduler keeps the exchange rate snapshot warm, prunes old persisted
// snapshots and reconciles the eBay quota. Only the prune job touches shared
// state, so only it takes the cluster-wide lock when a store is configured.
type Scheduler struct {
	cron      *cron.Cron
	rates     RateRefresher
	store     store.Store
	holder    string
	retention time.Duration
	log       *slog.Logger
}

// NewScheduler registers the warm-up job every warmInterval, unless it is
// zero. A non-nil st also gets a daily prune job removing snapshots older
// than retention.
func NewScheduler(
	rates RateRefresher,
	st store.Store,
	warmInterval time.Duration,
	retention time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}

	c := cron.New()

	s := &Scheduler{
		cron:      c,
		rates:     rates,
		store:     st,
		holder:    lockHolder(),
		retention: retention,
		log:       log,
	}

	if warmInterval > 0 {
		if _, err := c.AddFunc("@every "+warmInterval.String(), s.RunWarmup); err != nil {
			return nil, fmt.Errorf("scheduling rate warm-up: %w", err)
		}
	}

	if st != nil && retention > 0 {
		if _, err := c.AddFunc("@daily", s.RunPrune); err != nil {
			return nil, fmt.Errorf("scheduling snapshot prune: %w", err)
		}
	}

	return s, nil
}

// ScheduleQuotaSync adds a job reconciling the eBay call budget every
// interval. The limiter is per process, so the job never takes the
// cluster lock.
func (s *Scheduler) ScheduleQuotaSync(q QuotaSyncer, interval time.Duration) error {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer cancel()
		if err := q.SyncQuota(ctx); err != nil {
			s.log.Warn("eBay quota sync failed", "job", jobQuotaSync, "error", err)
			return
		}
		s.log.Debug("eBay quota synced", "job", jobQuotaSync)
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), run); err != nil {
		return fmt.Errorf("scheduling quota sync: %w", err)
	}
	return nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// RunWarmup refreshes the rate snapshot once. Every replica holds its own
// snapshot, so the job runs without the cluster lock.
func (s *Scheduler) RunWarmup() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	if err := s.rates.Refresh(ctx); err != nil {
		s.log.Error("scheduled rate warm-up failed", "job", jobRatesWarmup, "error", err)
		return
	}
	s.log.Debug("exchange rates refreshed", "job", jobRatesWarmup)
}

// RunPrune deletes persisted snapshots older than the retention window.
func (s *Scheduler) RunPrune() {
	if s.store == nil {
		return
	}
	s.withLock(jobSnapshotPrune, func(ctx context.Context) {
		n, err := s.store.PruneRateSnapshots(ctx, s.retention)
		if err != nil {
			s.log.Error("scheduled snapshot prune failed", "error", err)
			return
		}
		s.log.Info("rate snapshots pruned", "deleted", n, "retention", s.retention)
	})
}

func (s *Scheduler) withLock(job string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	if s.store == nil {
		fn(ctx)
		return
	}

	ok, err := s.store.AcquireSchedulerLock(ctx, job, s.holder, defaultJobTimeout)
	if err != nil {
		s.log.Error("acquiring scheduler lock", "job", job, "error", err)
		return
	}
	if !ok {
		s.log.Debug("job already running elsewhere", "job", job)
		return
	}
	defer func() {
		if err := s.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), job, s.holder); err != nil {
			s.log.Warn("releasing scheduler lock", "job", job, "error", err)
		}
	}()

	fn(ctx)
}

func lockHolder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
