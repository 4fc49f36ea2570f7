package shared

import (
	"fmt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

var (
	ErrNotFound  = fmt.Errorf("masterdata: %w", httpx.ErrNotFound)
	ErrDuplicate = fmt.Errorf("masterdata: %w", httpx.ErrDuplicate)
)
