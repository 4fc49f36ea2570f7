package documents

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
	"github.com/odyssey-erp/interco/internal/shared"
)

// Store is the read model the service depends on.
type Store interface {
	Get(ctx context.Context, kind Kind, id int64) (Document, error)
	List(ctx context.Context, kind Kind, filters ListFilters) ([]Document, int, error)
	SummaryByStatus(ctx context.Context, kind Kind, companyID int64) ([]StatusSummary, error)
}

// Service validates document queries.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, kind Kind, id int64) (Document, error) {
	if _, err := kind.Table(); err != nil {
		return Document{}, err
	}
	return s.store.Get(ctx, kind, id)
}

func (s *Service) List(ctx context.Context, kind Kind, filters ListFilters) (shared.Page[Document], error) {
	if _, err := kind.Table(); err != nil {
		return shared.Page[Document]{}, err
	}
	if filters.CompanyID <= 0 {
		return shared.Page[Document]{}, fmt.Errorf("%w: companyId is required", httpx.ErrValidation)
	}
	filters.Page, filters.Limit = shared.NormalizePage(filters.Page, filters.Limit)
	docs, total, err := s.store.List(ctx, kind, filters)
	if err != nil {
		return shared.Page[Document]{}, err
	}
	return shared.Page[Document]{Data: docs, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

func (s *Service) Summary(ctx context.Context, kind Kind, companyID int64) ([]StatusSummary, error) {
	if _, err := kind.Table(); err != nil {
		return nil, err
	}
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: companyId is required", httpx.ErrValidation)
	}
	return s.store.SummaryByStatus(ctx, kind, companyID)
}
