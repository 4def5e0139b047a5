package store

// SQL query constants. PostgresStore methods reference these.

// Rate snapshot queries.
const (
	queryInsertRateSnapshot = `
		INSERT INTO rate_snapshots (base, rates, fetched_at)
		VALUES (@base, @rates, @fetched_at)`

	queryLatestRateSnapshot = `
		SELECT base, rates, fetched_at
		FROM rate_snapshots
		WHERE base = $1
		ORDER BY fetched_at DESC
		LIMIT 1`

	queryPruneRateSnapshots = `
		DELETE FROM rate_snapshots
		WHERE fetched_at < $1
		  AND id NOT IN (
			SELECT DISTINCT ON (base) id
			FROM rate_snapshots
			ORDER BY base, fetched_at DESC
		  )`
)

// Scheduler lock queries.
const (
	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, lock_holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE
			SET locked_at   = now(),
				lock_holder = EXCLUDED.lock_holder,
				expires_at  = EXCLUDED.expires_at
			WHERE scheduler_locks.expires_at < now()
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND lock_holder = $2`
)
