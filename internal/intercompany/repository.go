package intercompany

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/platform/db"
)

// PgRepository persists transactions in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PgRepository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const transactionColumns = `id, ref, transaction_number, source_company_id, target_company_id, tenant_id, type,
source_document_id, target_document_id, source_journal_entry_id, target_journal_entry_id, counterpart_id,
transaction_date, amount, description, status, created_at, updated_at`

// Get loads a transaction by id.
func (r *PgRepository) Get(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, r.pool, id, false)
}

// List filters by tenant, either company side and status.
func (r *PgRepository) List(ctx context.Context, filters ListFilters) ([]Transaction, int, error) {
	where := `WHERE ($1::bigint = 0 OR tenant_id = $1)
AND ($2::bigint = 0 OR source_company_id = $2 OR target_company_id = $2)
AND ($3::text = '' OR status = $3)`
	args := []any{filters.TenantID, filters.CompanyID, string(filters.Status)}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM intercompany_transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+` FROM intercompany_transactions `+where+`
ORDER BY transaction_date DESC, id DESC
LIMIT $4 OFFSET $5`, append(args, filters.Limit, (filters.Page-1)*filters.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// Summary groups a tenant's transactions by status.
func (r *PgRepository) Summary(ctx context.Context, tenantID int64) ([]StatusTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(amount), 0)
FROM intercompany_transactions WHERE tenant_id = $1
GROUP BY status ORDER BY status`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StatusTotal, 0, 4)
	for rows.Next() {
		var st StatusTotal
		if err := rows.Scan(&st.Status, &st.Count, &st.Amount); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// PendingForAutoMatch lists pending transactions, oldest first.
func (r *PgRepository) PendingForAutoMatch(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+` FROM intercompany_transactions
WHERE status = 'pending'
ORDER BY transaction_date, id
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// WithTx runs fn in a read-committed transaction, retried on serialization failures.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, journals: journals.NewTxRepository(tx)})
	})
}

type txRepo struct {
	tx       pgx.Tx
	journals journals.TxRepository
}

func (r *txRepo) Companies(ctx context.Context, ids ...int64) (map[int64]Party, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, tenant_id, is_active FROM companies WHERE id = ANY($1) FOR SHARE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Party, len(ids))
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.TenantID, &p.IsActive); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *txRepo) DocumentOwner(ctx context.Context, kind documents.Kind, id int64) (int64, error) {
	return documents.OwnerOf(ctx, r.tx, kind, id)
}

func (r *txRepo) NextNumber(ctx context.Context, tenantID int64, year int) (string, error) {
	seq, err := db.NextSequence(ctx, r.tx, fmt.Sprintf("ICT:%d", tenantID), year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ICT-%d-%04d", year, seq), nil
}

func (r *txRepo) ResolveAccount(ctx context.Context, companyID int64, role mappings.Role) (int64, error) {
	return mappings.Resolve(ctx, r.tx, companyID, role)
}

func (r *txRepo) PostJournal(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	return journals.PostInTx(ctx, r.journals, in)
}

func (r *txRepo) ArchiveJournal(ctx context.Context, entryID int64) error {
	_, err := journals.ArchiveInTx(ctx, r.journals, entryID)
	return err
}

func (r *txRepo) Insert(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO intercompany_transactions (
ref, transaction_number, source_company_id, target_company_id, tenant_id, type,
source_document_id, target_document_id, source_journal_entry_id, target_journal_entry_id,
transaction_date, amount, description, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+transactionColumns,
		t.Ref, t.Number, t.SourceCompanyID, t.TargetCompanyID, t.TenantID, t.Type,
		t.SourceDocumentID, t.TargetDocumentID, t.SourceJournalEntryID, t.TargetJournalEntryID,
		t.Date.Time, t.Amount, t.Description, t.Status)
	return scanTransaction(row)
}

func (r *txRepo) GetForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return getTransaction(ctx, r.tx, id, true)
}

func (r *txRepo) UpdateStatus(ctx context.Context, id int64, status Status, counterpartID *int64) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `UPDATE intercompany_transactions
SET status = $2, counterpart_id = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+transactionColumns, id, status, counterpartID)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

func getTransaction(ctx context.Context, q db.Querier, id int64, forUpdate bool) (Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM intercompany_transactions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTransaction(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return t, err
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Ref, &t.Number, &t.SourceCompanyID, &t.TargetCompanyID, &t.TenantID, &t.Type,
		&t.SourceDocumentID, &t.TargetDocumentID, &t.SourceJournalEntryID, &t.TargetJournalEntryID, &t.CounterpartID,
		&t.Date.Time, &t.Amount, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
