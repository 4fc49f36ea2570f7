package shared

import (
	"fmt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = fmt.Errorf("%w: accounting: journal lines must balance", httpx.ErrValidation)
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = fmt.Errorf("%w: accounting: journal requires at least two lines", httpx.ErrValidation)
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = fmt.Errorf("accounting: journal entry %w", httpx.ErrNotFound)
	// ErrAccountNotFound indicates a missing or foreign account.
	ErrAccountNotFound = fmt.Errorf("accounting: account %w", httpx.ErrNotFound)
	// ErrInvalidStatus indicates action can't proceed.
	ErrInvalidStatus = fmt.Errorf("%w: accounting: invalid status transition", httpx.ErrValidation)
	// ErrMappingNotFound indicates account mapping missing.
	ErrMappingNotFound = fmt.Errorf("%w: accounting: account mapping not found", httpx.ErrValidation)
	// ErrDuplicateAccount indicates the code is already used in the company.
	ErrDuplicateAccount = fmt.Errorf("accounting: account code %w", httpx.ErrDuplicate)
)
