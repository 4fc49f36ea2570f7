package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/interco/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	Create(ctx context.Context, key APIKey) (*APIKey, error)
	Revoke(ctx context.Context, prefix string) error
	TouchLastUsed(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByPrefix fetches a key by its public prefix.
func (r *PGRepository) FindByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	var k APIKey
	err := r.pool.QueryRow(ctx, `SELECT id, prefix, tenant_id, label, secret_hash, revoked_at, last_used_at, created_at
FROM api_keys WHERE prefix = $1`, prefix).
		Scan(&k.ID, &k.Prefix, &k.TenantID, &k.Label, &k.SecretHash, &k.RevokedAt, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

// Create stores a new key.
func (r *PGRepository) Create(ctx context.Context, key APIKey) (*APIKey, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO api_keys (prefix, tenant_id, label, secret_hash)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`, key.Prefix, key.TenantID, key.Label, key.SecretHash).
		Scan(&key.ID, &key.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Revoke disables a key permanently.
func (r *PGRepository) Revoke(ctx context.Context, prefix string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE api_keys SET revoked_at = NOW() WHERE prefix = $1 AND revoked_at IS NULL`, prefix)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TouchLastUsed records the time of the latest successful authentication.
func (r *PGRepository) TouchLastUsed(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
