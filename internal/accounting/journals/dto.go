package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/interco/internal/accounting/shared"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// PostingLineInput describes a journal line for posting request.
type PostingLineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	CompanyID    int64
	Date         time.Time
	Type         EntryType
	Description  string
	SourceModule string
	SourceRef    *uuid.UUID
	Lines        []PostingLineInput
}

// Validate ensures posting input meets minimum criteria.
func (in PostingInput) Validate() error {
	if in.CompanyID <= 0 {
		return fmt.Errorf("%w: accounting: company required", httpx.ErrValidation)
	}
	if in.Date.IsZero() {
		return fmt.Errorf("%w: accounting: entry date required", httpx.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: accounting: unknown entry type %q", httpx.ErrValidation, in.Type)
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID <= 0 {
			return fmt.Errorf("%w: accounting: line %d missing account", httpx.ErrValidation, idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: accounting: line %d negative amount", httpx.ErrValidation, idx)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("%w: accounting: line %d cannot be both debit and credit", httpx.ErrValidation, idx)
		}
		if line.Debit.IsZero() && line.Credit.IsZero() {
			return fmt.Errorf("%w: accounting: line %d has no amount", httpx.ErrValidation, idx)
		}
		if err := shared.CheckAmount(fmt.Sprintf("line %d debit", idx), line.Debit); err != nil {
			return err
		}
		if err := shared.CheckAmount(fmt.Sprintf("line %d credit", idx), line.Credit); err != nil {
			return err
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return shared.ErrUnbalanced
	}
	return nil
}

// Total returns the debit side of the entry, which equals its amount.
func (in PostingInput) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range in.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// CreateLineRequest is one line of a manual entry.
type CreateLineRequest struct {
	AccountID   int64           `json:"accountId" validate:"required,gt=0"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty" validate:"max=500"`
}

// CreateEntryRequest creates a manual or imported journal entry.
type CreateEntryRequest struct {
	CompanyID   int64               `json:"companyId" validate:"required,gt=0"`
	EntryDate   string              `json:"entryDate" validate:"required,datetime=2006-01-02"`
	Type        string              `json:"type,omitempty" validate:"omitempty,oneof=manual imported"`
	Description string              `json:"description,omitempty" validate:"max=500"`
	Post        bool                `json:"post"`
	Lines       []CreateLineRequest `json:"lines" validate:"required,min=2,dive"`
}

// ToPostingInput converts a validated request.
func (r CreateEntryRequest) ToPostingInput() (PostingInput, error) {
	date, err := time.Parse(time.DateOnly, r.EntryDate)
	if err != nil {
		return PostingInput{}, fmt.Errorf("%w: entryDate must be formatted 2006-01-02", httpx.ErrValidation)
	}
	entryType := EntryTypeManual
	if r.Type != "" {
		entryType = EntryType(r.Type)
	}
	in := PostingInput{
		CompanyID:    r.CompanyID,
		Date:         date,
		Type:         entryType,
		Description:  r.Description,
		SourceModule: "journals",
		Lines:        make([]PostingLineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		in.Lines = append(in.Lines, PostingLineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return in, nil
}
