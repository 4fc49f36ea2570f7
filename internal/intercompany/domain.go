// Package intercompany records business events between two companies of one
// tenant, posts the mirrored journal entries in both ledgers and tracks the
// pairing of each event with its counterpart.
package intercompany

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// TxType classifies the business event.
type TxType string

const (
	TypeSalesOrder TxType = "sales_order"
	TypeInvoice    TxType = "invoice"
	TypePayment    TxType = "payment"
	TypeReceipt    TxType = "receipt"
	TypeTransfer   TxType = "transfer"
)

// Valid reports whether t is a known type.
func (t TxType) Valid() bool {
	switch t {
	case TypeSalesOrder, TypeInvoice, TypePayment, TypeReceipt, TypeTransfer:
		return true
	}
	return false
}

// DocumentKinds returns the document kinds the source and target sides may
// reference. Transfers carry no documents.
func (t TxType) DocumentKinds() (source, target documents.Kind, ok bool) {
	switch t {
	case TypeSalesOrder:
		return documents.KindSalesOrder, documents.KindPurchaseOrder, true
	case TypeInvoice:
		return documents.KindInvoice, documents.KindBill, true
	case TypePayment, TypeReceipt:
		return documents.KindReceipt, documents.KindPayment, true
	}
	return "", "", false
}

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusMatched    Status = "matched"
	StatusReconciled Status = "reconciled"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists the states reachable from each state. Every state may
// also "move" to itself, which is a no-op.
var transitions = map[Status][]Status{
	StatusPending:    {StatusMatched, StatusCancelled},
	StatusMatched:    {StatusReconciled, StatusCancelled},
	StatusReconciled: nil,
	StatusCancelled:  nil,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, candidate := range next {
		if candidate == to {
			return true
		}
	}
	return false
}

// AmountPolicy decides whether a counterpart pair must carry equal amounts.
type AmountPolicy string

const (
	AmountPolicyAllowMismatch AmountPolicy = "allow_mismatch"
	AmountPolicyRequireEqual  AmountPolicy = "require_equal"
)

// ParseAmountPolicy reads a policy name; empty means allow_mismatch.
func ParseAmountPolicy(raw string) (AmountPolicy, error) {
	switch AmountPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AmountPolicyAllowMismatch:
		return AmountPolicyAllowMismatch, nil
	case AmountPolicyRequireEqual:
		return AmountPolicyRequireEqual, nil
	}
	return "", fmt.Errorf("intercompany: unknown amount policy %q", raw)
}

var (
	// ErrNotFound indicates a missing transaction.
	ErrNotFound = fmt.Errorf("intercompany: transaction %w", httpx.ErrNotFound)
	// ErrCompanyTenant covers missing, inactive or foreign companies.
	ErrCompanyTenant = fmt.Errorf("%w: source and target companies must exist and belong to the specified tenant", httpx.ErrValidation)
	// ErrAlreadyMatched rejects pairing a transaction twice.
	ErrAlreadyMatched = fmt.Errorf("%w: transaction already matched or reconciled", httpx.ErrValidation)
	// ErrNotMirror rejects pairs whose companies are not reversed.
	ErrNotMirror = fmt.Errorf("%w: transactions are not mirror images of each other", httpx.ErrValidation)
	// ErrTenantMismatch rejects pairs across tenants.
	ErrTenantMismatch = fmt.Errorf("%w: transactions belong to different tenants", httpx.ErrValidation)
	// ErrAmountMismatch rejects unequal pairs under the require_equal policy.
	ErrAmountMismatch = fmt.Errorf("%w: counterpart amounts differ", httpx.ErrValidation)
)

func illegalTransition(from, to Status) error {
	return fmt.Errorf("%w: illegal status transition from %s to %s", httpx.ErrValidation, from, to)
}

// Date is a calendar date serialised as 2006-01-02.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a 2006-01-02 date.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date must be a date formatted 2006-01-02", httpx.ErrValidation)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseDate(strings.Trim(string(raw), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is one intercompany event.
type Transaction struct {
	ID                   int64           `json:"id"`
	Ref                  uuid.UUID       `json:"ref"`
	Number               string          `json:"transactionNumber"`
	SourceCompanyID      int64           `json:"sourceCompanyId"`
	TargetCompanyID      int64           `json:"targetCompanyId"`
	TenantID             int64           `json:"tenantId"`
	Type                 TxType          `json:"type"`
	SourceDocumentID     *int64          `json:"sourceDocumentId"`
	TargetDocumentID     *int64          `json:"targetDocumentId"`
	SourceJournalEntryID *int64          `json:"sourceJournalEntryId"`
	TargetJournalEntryID *int64          `json:"targetJournalEntryId"`
	CounterpartID        *int64          `json:"counterpartId"`
	Date                 Date            `json:"date"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Status               Status          `json:"status"`
	CreatedAt            time.Time       `json:"-"`
	UpdatedAt            time.Time       `json:"-"`
}

// IsMirrorOf reports whether t and other run between the same two companies
// in opposite directions.
func (t Transaction) IsMirrorOf(other Transaction) bool {
	return t.SourceCompanyID == other.TargetCompanyID && t.TargetCompanyID == other.SourceCompanyID
}

// Party is the company view needed to validate an event.
type Party struct {
	ID       int64
	TenantID int64
	IsActive bool
}

// CreateInput carries a validated creation request.
type CreateInput struct {
	SourceCompanyID      int64
	TargetCompanyID      int64
	TenantID             int64
	Type                 TxType
	SourceDocumentID     *int64
	TargetDocumentID     *int64
	Date                 Date
	Amount               decimal.Decimal
	Description          string
	CreateJournalEntries bool
}

// ListFilters narrows listings. CompanyID matches either side.
type ListFilters struct {
	TenantID  int64
	CompanyID int64
	Status    Status
	Page      int
	Limit     int
}

// StatusTotal aggregates transactions of one status.
type StatusTotal struct {
	Status Status          `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary describes a tenant's intercompany position.
type Summary struct {
	TenantID int64         `json:"tenantId"`
	ByStatus []StatusTotal `json:"byStatus"`
}

// MatchResult returns both sides of a new pairing.
type MatchResult struct {
	Source Transaction `json:"source"`
	Target Transaction `json:"target"`
}

// AutoMatchResult summarises an auto-match sweep.
type AutoMatchResult struct {
	Considered int `json:"considered"`
	Matched    int `json:"matched"`
	Failed     int `json:"failed"`
}
