package companies

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/interco/internal/masterdata/shared"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Company, int, error) {
	if filters.TenantID <= 0 {
		return nil, 0, fmt.Errorf("%w: tenantId is required", httpx.ErrValidation)
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Company, error) {
	if id <= 0 {
		return Company{}, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateCompanyRequest) (Company, error) {
	company := Company{
		TenantID: req.TenantID,
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Type:     CompanyType(req.Type),
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if err := s.validate(company); err != nil {
		return Company{}, err
	}
	return s.repo.Create(ctx, company)
}

// Deactivate soft-deletes a company; ledger rows keep referencing it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	return s.repo.Deactivate(ctx, id)
}
