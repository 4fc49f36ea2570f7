package db

import (
	"context"
	"fmt"
)

// NextSequence atomically increments the counter for scope and year and
// returns the new value. Concurrent callers serialise on the counter row, so
// the value is unique per scope-year once the enclosing transaction commits.
func NextSequence(ctx context.Context, q Querier, scope string, year int) (int64, error) {
	if scope == "" {
		return 0, fmt.Errorf("platform/db: sequence scope required")
	}
	const query = `
INSERT INTO document_sequences (scope, year, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (scope, year)
DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = NOW()
RETURNING last_value`
	var next int64
	if err := q.QueryRow(ctx, query, scope, year).Scan(&next); err != nil {
		return 0, fmt.Errorf("platform/db: next sequence %s/%d: %w", scope, year, err)
	}
	return next, nil
}
