package mappings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/accounting/accounts"
	"github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/platform/db"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// Repository persists account role mappings.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]AccountMapping, error)
	// Replace upserts the given assignments atomically after checking each
	// account belongs to the company.
	Replace(ctx context.Context, companyID int64, assignments map[Role]int64) error
	// Bootstrap maps every role to the account carrying its conventional code.
	Bootstrap(ctx context.Context, companyID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, companyID int64) ([]AccountMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, role, account_id, updated_at FROM account_role_mappings WHERE company_id = $1 ORDER BY role`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AccountMapping, 0, len(Roles))
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.CompanyID, &m.Role, &m.AccountID, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Replace(ctx context.Context, companyID int64, assignments map[Role]int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for role, accountID := range assignments {
			if err := upsert(ctx, tx, companyID, role, accountID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) Bootstrap(ctx context.Context, companyID int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, role := range Roles {
			acc, err := accounts.GetByCode(ctx, tx, companyID, ConventionalCodes[role])
			if err != nil {
				if errors.Is(err, shared.ErrAccountNotFound) {
					return fmt.Errorf("%w: company %d has no account %s for role %s", httpx.ErrValidation, companyID, ConventionalCodes[role], role)
				}
				return err
			}
			if err := upsert(ctx, tx, companyID, role, acc.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsert(ctx context.Context, q db.Querier, companyID int64, role Role, accountID int64) error {
	var owner int64
	err := q.QueryRow(ctx, `SELECT company_id FROM accounts WHERE id = $1`, accountID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && owner != companyID) {
		return fmt.Errorf("%w: account %d does not belong to company %d", httpx.ErrValidation, accountID, companyID)
	}
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO account_role_mappings (company_id, role, account_id)
VALUES ($1, $2, $3)
ON CONFLICT (company_id, role) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()`, companyID, role, accountID)
	return err
}

// Resolve returns the account mapped to role for the company. It accepts any
// querier so postings can resolve inside their own transaction.
func Resolve(ctx context.Context, q db.Querier, companyID int64, role Role) (int64, error) {
	var accountID int64
	err := q.QueryRow(ctx, `SELECT m.account_id
FROM account_role_mappings m
JOIN accounts a ON a.id = m.account_id AND a.is_active
WHERE m.company_id = $1 AND m.role = $2`, companyID, role).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: company %d role %s", shared.ErrMappingNotFound, companyID, role)
		}
		return 0, err
	}
	return accountID, nil
}
