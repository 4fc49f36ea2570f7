package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	return s.repo.List(ctx, companyID)
}

// Create adds an account. Without an explicit type the conventional code
// range decides it.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateAccountRequest) (Account, error) {
	if companyID <= 0 {
		return Account{}, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	code := strings.TrimSpace(req.Code)
	typ := AccountType(req.Type)
	if typ == "" {
		derived, ok := ConventionalType(code)
		if !ok {
			return Account{}, fmt.Errorf("%w: account type required for code %q", httpx.ErrValidation, code)
		}
		typ = derived
	}
	if !typ.Valid() {
		return Account{}, fmt.Errorf("%w: unknown account type %q", httpx.ErrValidation, typ)
	}
	return s.repo.Create(ctx, Account{
		CompanyID: companyID,
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Type:      typ,
	})
}
