package mappings

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// Service manages the per-company role to account mapping.
type Service struct {
	repo Repository
}

// NewService wires the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the company's mapped roles.
func (s *Service) List(ctx context.Context, companyID int64) ([]AccountMapping, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	return s.repo.List(ctx, companyID)
}

// Set replaces the accounts for the given roles and returns the full mapping.
func (s *Service) Set(ctx context.Context, companyID int64, req SetMappingsRequest) ([]AccountMapping, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	assignments := make(map[Role]int64, len(req.Roles))
	for name, accountID := range req.Roles {
		role := Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, name)
		}
		if accountID <= 0 {
			return nil, fmt.Errorf("%w: role %s needs an account id", httpx.ErrValidation, name)
		}
		assignments[role] = accountID
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", httpx.ErrValidation)
	}
	if err := s.repo.Replace(ctx, companyID, assignments); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, companyID)
}

// Bootstrap seeds the mapping from ConventionalCodes, once, at company setup.
func (s *Service) Bootstrap(ctx context.Context, companyID int64) ([]AccountMapping, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company ID", httpx.ErrValidation)
	}
	if err := s.repo.Bootstrap(ctx, companyID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, companyID)
}

// Missing reports which roles are still unmapped.
func Missing(current []AccountMapping) []Role {
	have := make(map[Role]bool, len(current))
	for _, m := range current {
		have[m.Role] = true
	}
	var out []Role
	for _, role := range Roles {
		if !have[role] {
			out = append(out, role)
		}
	}
	return out
}
