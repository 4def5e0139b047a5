package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
type PostgresStore struct {
	pool    *pgxpool.Pool
	nowFunc func() time.Time
}

// NewPostgresStore creates a new PostgresStore with connection pooling. A
// poolSize of zero or less uses the default.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(poolSize) //nolint:gosec // bounded by config validation

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool, nowFunc: time.Now}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// SaveRateSnapshot appends a snapshot to the history table.
func (s *PostgresStore) SaveRateSnapshot(ctx context.Context, snap *domain.ExchangeRateSnapshot) error {
	rates, err := json.Marshal(snap.Rates)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}

	args := pgx.NamedArgs{
		"base":       snap.Base,
		"rates":      rates,
		"fetched_at": snap.FetchedAt,
	}

	if _, err := s.pool.Exec(ctx, queryInsertRateSnapshot, args); err != nil {
		return fmt.Errorf("saving rate snapshot: %w", err)
	}
	return nil
}

// LatestRateSnapshot returns the newest snapshot for base, or nil when none
// has been saved yet.
func (s *PostgresStore) LatestRateSnapshot(
	ctx context.Context,
	base string,
) (*domain.ExchangeRateSnapshot, error) {
	snap, err := scanRateSnapshot(s.pool.QueryRow(ctx, queryLatestRateSnapshot, base))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // absent snapshot is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest rate snapshot: %w", err)
	}
	return snap, nil
}

// ListRateSnapshots returns snapshots matching q, newest first, plus the
// total number of matching rows.
func (s *PostgresStore) ListRateSnapshots(
	ctx context.Context,
	q *SnapshotQuery,
) ([]domain.ExchangeRateSnapshot, int, error) {
	dataSQL, countSQL, args := q.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting rate snapshots: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing rate snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.ExchangeRateSnapshot
	for rows.Next() {
		snap, err := scanRateSnapshot(rows)
		if err != nil {
			return nil, 0, err
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating rate snapshots: %w", err)
	}

	return snaps, total, nil
}

// PruneRateSnapshots deletes snapshots older than olderThan. The newest
// snapshot of every base is always kept.
func (s *PostgresStore) PruneRateSnapshots(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.nowFunc().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, queryPruneRateSnapshots, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning rate snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// AcquireSchedulerLock attempts to acquire a distributed lock for the given job.
// Returns true if the lock was acquired, false if another holder already owns it.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	expiresAt := s.nowFunc().Add(ttl)

	var gotName string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, expiresAt).Scan(&gotName)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}

	return true, nil
}

// ReleaseSchedulerLock deletes the lock row for the given job and holder.
func (s *PostgresStore) ReleaseSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
) error {
	if _, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder); err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

func scanRateSnapshot(row pgx.Row) (*domain.ExchangeRateSnapshot, error) {
	var (
		snap  domain.ExchangeRateSnapshot
		rates []byte
	)
	if err := row.Scan(&snap.Base, &rates, &snap.FetchedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rates, &snap.Rates); err != nil {
		return nil, fmt.Errorf("decoding rates for %s: %w", snap.Base, err)
	}
	snap.FetchedAt = snap.FetchedAt.UTC()
	return &snap, nil
}
