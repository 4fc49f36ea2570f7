// Package documents exposes the order-to-cash and procure-to-pay documents an
// intercompany transaction may reference. Documents are read-only here.
package documents

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// Kind names a document table.
type Kind string

const (
	KindSalesOrder    Kind = "sales_order"
	KindPurchaseOrder Kind = "purchase_order"
	KindInvoice       Kind = "invoice"
	KindBill          Kind = "bill"
	KindReceipt       Kind = "receipt"
	KindPayment       Kind = "payment"
)

var tables = map[Kind]string{
	KindSalesOrder:    "sales_orders",
	KindPurchaseOrder: "purchase_orders",
	KindInvoice:       "invoices",
	KindBill:          "bills",
	KindReceipt:       "receipts",
	KindPayment:       "payments",
}

// ErrNotFound indicates the document does not exist.
var ErrNotFound = fmt.Errorf("documents: document %w", httpx.ErrNotFound)

// ParseKind accepts the singular kind or its table name.
func ParseKind(raw string) (Kind, error) {
	if _, ok := tables[Kind(raw)]; ok {
		return Kind(raw), nil
	}
	for kind, table := range tables {
		if table == raw {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: unknown document kind %q", httpx.ErrValidation, raw)
}

// Table returns the whitelisted table backing k.
func (k Kind) Table() (string, error) {
	table, ok := tables[k]
	if !ok {
		return "", fmt.Errorf("%w: unknown document kind %q", httpx.ErrValidation, k)
	}
	return table, nil
}

// Document is the common shape shared by every document table.
type Document struct {
	ID           int64           `json:"id"`
	Kind         Kind            `json:"kind"`
	CompanyID    int64           `json:"companyId"`
	Number       string          `json:"number"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	DocumentDate time.Time       `json:"documentDate"`
}

// StatusSummary aggregates documents of one status.
type StatusSummary struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// ListFilters narrows document listings.
type ListFilters struct {
	CompanyID int64
	Status    string
	Page      int
	Limit     int
}
