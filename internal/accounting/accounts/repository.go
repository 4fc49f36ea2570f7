package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, company_id, code, name, type, balance, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make([]Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	return GetByCode(ctx, r.db, companyID, code)
}

// GetByCode looks an account up by code using any querier, including a tx.
func GetByCode(ctx context.Context, q db.Querier, companyID int64, code string) (Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND code = $2`, companyID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, balance, is_active)
VALUES ($1, $2, $3, $4, 0, TRUE)
RETURNING `+accountColumns, account.CompanyID, account.Code, account.Name, account.Type)
	created, err := scanAccount(row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Account{}, shared.ErrDuplicateAccount
		}
		return Account{}, err
	}
	return created, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
