package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

const (
	prefixBytes = 6
	secretBytes = 24
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
	cost   int
}

// NewService constructs a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, cost: bcrypt.DefaultCost}
}

// Authenticate validates a "prefix.secret" token and returns its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (shared.Principal, error) {
	prefix, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || prefix == "" || secret == "" {
		return shared.Principal{}, shared.ErrInvalidAPIKey
	}
	key, err := s.repo.FindByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Principal{}, shared.ErrInvalidAPIKey
		}
		return shared.Principal{}, err
	}
	if !key.Active() {
		return shared.Principal{}, shared.ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
		return shared.Principal{}, shared.ErrInvalidAPIKey
	}
	if err := s.repo.TouchLastUsed(ctx, key.ID); err != nil {
		s.logger.Warn("api key last-used update failed", slog.String("prefix", key.Prefix), slog.Any("error", err))
	}
	return shared.Principal{KeyPrefix: key.Prefix, TenantID: key.TenantID}, nil
}

// Issue creates a key for the tenant and returns its plaintext token once.
func (s *Service) Issue(ctx context.Context, tenantID int64, label string) (IssuedKey, error) {
	if tenantID <= 0 {
		return IssuedKey{}, fmt.Errorf("%w: tenant id is required", httpx.ErrValidation)
	}
	prefix, err := randomHex(prefixBytes)
	if err != nil {
		return IssuedKey{}, err
	}
	secret, err := randomHex(secretBytes)
	if err != nil {
		return IssuedKey{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return IssuedKey{}, err
	}
	created, err := s.repo.Create(ctx, APIKey{Prefix: prefix, TenantID: tenantID, Label: label, SecretHash: string(hash)})
	if err != nil {
		return IssuedKey{}, err
	}
	return IssuedKey{Key: *created, Token: prefix + "." + secret}, nil
}

// Revoke disables the key with the given prefix.
func (s *Service) Revoke(ctx context.Context, prefix string) error {
	return s.repo.Revoke(ctx, prefix)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
