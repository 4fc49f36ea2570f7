package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/platform/db"
)

// Repository provides PostgreSQL backed reads across document tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentColumns = `id, company_id, number, status, total, document_date`

// Get loads one document.
func (r *Repository) Get(ctx context.Context, kind Kind, id int64) (Document, error) {
	table, err := kind.Table()
	if err != nil {
		return Document{}, err
	}
	doc := Document{Kind: kind}
	err = r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM `+table+` WHERE id = $1`, id).
		Scan(&doc.ID, &doc.CompanyID, &doc.Number, &doc.Status, &doc.Total, &doc.DocumentDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// List returns a page of a company's documents, newest first.
func (r *Repository) List(ctx context.Context, kind Kind, filters ListFilters) ([]Document, int, error) {
	table, err := kind.Table()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+`
WHERE company_id = $1 AND ($2 = '' OR status = $2)`, filters.CompanyID, filters.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM `+table+`
WHERE company_id = $1 AND ($2 = '' OR status = $2)
ORDER BY document_date DESC, id DESC
LIMIT $3 OFFSET $4`, filters.CompanyID, filters.Status, filters.Limit, (filters.Page-1)*filters.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	docs := make([]Document, 0)
	for rows.Next() {
		doc := Document{Kind: kind}
		if err := rows.Scan(&doc.ID, &doc.CompanyID, &doc.Number, &doc.Status, &doc.Total, &doc.DocumentDate); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// SummaryByStatus counts and totals a company's documents per status.
func (r *Repository) SummaryByStatus(ctx context.Context, kind Kind, companyID int64) ([]StatusSummary, error) {
	table, err := kind.Table()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM `+table+`
WHERE company_id = $1 GROUP BY status ORDER BY status`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StatusSummary, 0)
	for rows.Next() {
		var s StatusSummary
		if err := rows.Scan(&s.Status, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// OwnerOf returns the company owning a document, using any querier so
// callers can check references inside their own transaction.
func OwnerOf(ctx context.Context, q db.Querier, kind Kind, id int64) (int64, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, err
	}
	var companyID int64
	err = q.QueryRow(ctx, `SELECT company_id FROM `+table+` WHERE id = $1`, id).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return companyID, err
}
