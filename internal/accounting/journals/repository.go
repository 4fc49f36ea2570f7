package journals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]JournalEntry, int, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, in PostingInput, status EntryStatus) (JournalEntry, error)
	GetForUpdate(ctx context.Context, entryID int64) (JournalEntry, error)
	UpdateStatus(ctx context.Context, entryID int64, status EntryStatus) error
	// ApplyBalances moves account balances by the lines, or backs them out
	// when reverse is set.
	ApplyBalances(ctx context.Context, companyID int64, lines []JournalLine, reverse bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, number, entry_date, amount, type, status, description, source_module, source_ref, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]JournalEntry, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE company_id = $1 AND ($2 = '' OR status = $2)`, filters.CompanyID, string(filters.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id = $1 AND ($2 = '' OR status = $2)
ORDER BY entry_date DESC, id DESC
LIMIT $3 OFFSET $4`, filters.CompanyID, string(filters.Status), filters.Limit, (filters.Page-1)*filters.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries := make([]JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return getEntry(ctx, r.db, id, false)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds journal writes to a transaction owned by the caller,
// so other modules can post entries atomically with their own rows.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) InsertEntry(ctx context.Context, in PostingInput, status EntryStatus) (JournalEntry, error) {
	if err := ensureAccountsOwned(ctx, r.tx, in.CompanyID, in.Lines); err != nil {
		return JournalEntry{}, err
	}
	seq, err := db.NextSequence(ctx, r.tx, fmt.Sprintf("JE:%d", in.CompanyID), in.Date.Year())
	if err != nil {
		return JournalEntry{}, err
	}
	number := fmt.Sprintf("JE-%d-%04d", in.Date.Year(), seq)
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, number, entry_date, amount, type, status, description, source_module, source_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+entryColumns,
		in.CompanyID, number, in.Date, in.Total(), in.Type, status, in.Description, in.SourceModule, in.SourceRef)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = make([]JournalLine, 0, len(in.Lines))
	for _, line := range in.Lines {
		inserted := JournalLine{EntryID: entry.ID, AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit, Description: line.Description}
		if err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_items (journal_entry_id, account_id, debit, credit, description)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, entry.ID, line.AccountID, line.Debit, line.Credit, line.Description).Scan(&inserted.ID); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, inserted)
	}
	return entry, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, entryID int64) (JournalEntry, error) {
	return getEntry(ctx, r.tx, entryID, true)
}

func (r *txRepository) UpdateStatus(ctx context.Context, entryID int64, status EntryStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status = $2, updated_at = NOW() WHERE id = $1`, entryID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) ApplyBalances(ctx context.Context, companyID int64, lines []JournalLine, reverse bool) error {
	for _, line := range lines {
		debit, credit := line.Debit, line.Credit
		if reverse {
			debit, credit = credit, debit
		}
		cmd, err := r.tx.Exec(ctx, `UPDATE accounts
SET balance = balance + CASE WHEN type IN ('asset', 'expense') THEN $3::numeric - $4::numeric ELSE $4::numeric - $3::numeric END,
    updated_at = NOW()
WHERE id = $1 AND company_id = $2`, line.AccountID, companyID, debit, credit)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: id %d", shared.ErrAccountNotFound, line.AccountID)
		}
	}
	return nil
}

func ensureAccountsOwned(ctx context.Context, q db.Querier, companyID int64, lines []PostingLineInput) error {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			ids = append(ids, line.AccountID)
		}
	}
	var found int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE company_id = $1 AND is_active AND id = ANY($2)`, companyID, ids).Scan(&found); err != nil {
		return err
	}
	if found != len(ids) {
		return fmt.Errorf("%w: every line account must be an active account of company %d", shared.ErrAccountNotFound, companyID)
	}
	return nil
}

func getEntry(ctx context.Context, q db.Querier, id int64, forUpdate bool) (JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	entry, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := q.Query(ctx, `SELECT id, journal_entry_id, account_id, debit, credit, description
FROM journal_entry_items WHERE journal_entry_id = $1 ORDER BY id`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	entry.Lines = make([]JournalLine, 0, 2)
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.Number, &e.EntryDate, &e.Amount, &e.Type, &e.Status,
		&e.Description, &e.SourceModule, &e.SourceRef, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
