package intercompany

import (
	"github.com/shopspring/decimal"
)

// CreateRequest is the body of POST /intercompany-transactions.
type CreateRequest struct {
	SourceCompanyID      int64           `json:"sourceCompanyId" validate:"required,gt=0"`
	TargetCompanyID      int64           `json:"targetCompanyId" validate:"required,gt=0"`
	TenantID             int64           `json:"tenantId" validate:"required,gt=0"`
	Type                 string          `json:"type" validate:"required,oneof=sales_order invoice payment receipt transfer"`
	SourceDocumentID     *int64          `json:"sourceDocumentId,omitempty" validate:"omitempty,gt=0"`
	TargetDocumentID     *int64          `json:"targetDocumentId,omitempty" validate:"omitempty,gt=0"`
	Date                 string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description,omitempty" validate:"max=500"`
	CreateJournalEntries *bool           `json:"createJournalEntries,omitempty"`
}

// ToInput converts a validated request. Journal entries default to on.
func (r CreateRequest) ToInput() (CreateInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return CreateInput{}, err
	}
	createEntries := true
	if r.CreateJournalEntries != nil {
		createEntries = *r.CreateJournalEntries
	}
	return CreateInput{
		SourceCompanyID:      r.SourceCompanyID,
		TargetCompanyID:      r.TargetCompanyID,
		TenantID:             r.TenantID,
		Type:                 TxType(r.Type),
		SourceDocumentID:     r.SourceDocumentID,
		TargetDocumentID:     r.TargetDocumentID,
		Date:                 date,
		Amount:               r.Amount,
		Description:          r.Description,
		CreateJournalEntries: createEntries,
	}, nil
}

// StatusRequest is the body of PUT /intercompany-transactions/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending matched reconciled cancelled"`
}

// MatchRequest is the body of POST /intercompany-transactions/match.
type MatchRequest struct {
	SourceTransactionID int64 `json:"sourceTransactionId" validate:"required,gt=0"`
	TargetTransactionID int64 `json:"targetTransactionId" validate:"required,gt=0"`
}
