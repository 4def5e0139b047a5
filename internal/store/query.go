package store

import (
	"fmt"
	"strings"
)

const (
	defaultSnapshotLimit = 24
	maxSnapshotLimit     = 500
)

const baseSnapshotsSelect = `SELECT base, rates, fetched_at FROM rate_snapshots`

const countSnapshotsSelect = "SELECT COUNT(*) FROM rate_snapshots"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT and OFFSET for a snapshot
// history query. It returns the data query, the matching count query and
// the positional parameters shared by both.
func (q *SnapshotQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.Base != nil {
		conditions = append(conditions, fmt.Sprintf("base = $%d", paramIdx))
		args = append(args, strings.ToUpper(*q.Base))
		paramIdx++
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("fetched_at >= $%d", paramIdx))
		args = append(args, *q.Since)
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}
	limit = min(limit, maxSnapshotLimit)

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY fetched_at DESC LIMIT %d OFFSET %d",
		baseSnapshotsSelect, whereClause, limit, offset,
	)

	countSQL = countSnapshotsSelect + whereClause

	return dataSQL, countSQL, args
}
