package auth

import (
	"time"
)

// APIKey is a tenant-scoped credential. Only the bcrypt hash of the secret
// part is stored; the prefix locates the row.
type APIKey struct {
	ID         int64
	Prefix     string
	TenantID   int64
	Label      string
	SecretHash string
	RevokedAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// Active reports whether the key may still authenticate.
func (k APIKey) Active() bool {
	return k.RevokedAt == nil
}

// IssuedKey carries the plaintext token, shown once at creation.
type IssuedKey struct {
	Key   APIKey
	Token string
}
