package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/odyssey-erp/interco/internal/jobs"
)

// UnbalancedEntry is a posted journal entry whose lines do not net to zero.
type UnbalancedEntry struct {
	EntryID   int64
	CompanyID int64
	Number    string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// UnbalancedFinder locates unbalanced posted entries.
type UnbalancedFinder interface {
	FindUnbalanced(ctx context.Context, companyID int64) ([]UnbalancedEntry, error)
}

// PgUnbalancedFinder queries journal tables directly.
type PgUnbalancedFinder struct {
	pool *pgxpool.Pool
}

// NewPgUnbalancedFinder constructs the finder.
func NewPgUnbalancedFinder(pool *pgxpool.Pool) *PgUnbalancedFinder {
	return &PgUnbalancedFinder{pool: pool}
}

// FindUnbalanced implements UnbalancedFinder.
func (f *PgUnbalancedFinder) FindUnbalanced(ctx context.Context, companyID int64) ([]UnbalancedEntry, error) {
	rows, err := f.pool.Query(ctx, `
SELECT je.id, je.company_id, je.number, COALESCE(SUM(i.debit), 0), COALESCE(SUM(i.credit), 0)
FROM journal_entries je
LEFT JOIN journal_entry_items i ON i.journal_entry_id = je.id
WHERE je.status = 'posted' AND ($1::bigint = 0 OR je.company_id = $1)
GROUP BY je.id, je.company_id, je.number
HAVING COALESCE(SUM(i.debit), 0) <> COALESCE(SUM(i.credit), 0)
ORDER BY je.id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnbalancedEntry
	for rows.Next() {
		var e UnbalancedEntry
		if err := rows.Scan(&e.EntryID, &e.CompanyID, &e.Number, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LedgerIntegrityJob verifies that every posted journal entry balances.
type LedgerIntegrityJob struct {
	Finder  UnbalancedFinder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity handler.
func NewLedgerIntegrityJob(finder UnbalancedFinder, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Finder: finder, Logger: logger, Metrics: metrics}
}

// Handle runs the check. Imbalances are reported, not treated as job failures.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finder == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	logger := loggerOrDefault(j.Logger).With(slog.String("job", TaskLedgerIntegrity))

	entries, err := j.Finder.FindUnbalanced(ctx, payload.CompanyID)
	if err != nil {
		logger.Error("integrity scan failed", slog.Any("error", err))
		return tracker.End(err)
	}
	for _, e := range entries {
		logger.Warn("unbalanced journal entry",
			slog.Int64("entry_id", e.EntryID),
			slog.Int64("company_id", e.CompanyID),
			slog.String("number", e.Number),
			slog.String("debit", e.Debit.StringFixed(2)),
			slog.String("credit", e.Credit.StringFixed(2)))
	}
	j.Metrics.SetUnbalancedEntries(len(entries))
	logger.Info("ledger integrity check executed", slog.Int("unbalanced", len(entries)))
	return tracker.End(nil)
}
