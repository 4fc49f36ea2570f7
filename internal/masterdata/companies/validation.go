package companies

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

func (s *Service) validate(c Company) error {
	if c.TenantID <= 0 {
		return fmt.Errorf("%w: tenant id is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: company code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: company name is required", httpx.ErrValidation)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown company type %q", httpx.ErrValidation, c.Type)
	}
	if _, err := currency.ParseISO(c.Currency); err != nil {
		return fmt.Errorf("%w: currency %q is not an ISO 4217 code", httpx.ErrValidation, c.Currency)
	}
	return nil
}
