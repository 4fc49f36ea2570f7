package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType records how a journal entry originated.
type EntryType string

const (
	EntryTypeManual          EntryType = "manual"
	EntryTypeSystemGenerated EntryType = "system_generated"
	EntryTypeImported        EntryType = "imported"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeManual, EntryTypeSystemGenerated, EntryTypeImported:
		return true
	}
	return false
}

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusArchived EntryStatus = "archived"
)

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"companyId"`
	Number       string          `json:"number"`
	EntryDate    time.Time       `json:"entryDate"`
	Amount       decimal.Decimal `json:"amount"`
	Type         EntryType       `json:"type"`
	Status       EntryStatus     `json:"status"`
	Description  string          `json:"description,omitempty"`
	SourceModule string          `json:"sourceModule,omitempty"`
	SourceRef    *uuid.UUID      `json:"sourceRef,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Lines        []JournalLine   `json:"lines,omitempty"`
}

// JournalLine stores debit or credit amount for an account.
type JournalLine struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entryId"`
	AccountID   int64           `json:"accountId"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// Totals sums the debit and credit sides of lines.
func Totals(lines []JournalLine) (debit, credit decimal.Decimal) {
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// ListFilters narrows journal listings.
type ListFilters struct {
	CompanyID int64
	Status    EntryStatus
	Page      int
	Limit     int
}
