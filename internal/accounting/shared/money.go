package shared

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

// AmountScale is the number of decimal places stored for monetary amounts.
const AmountScale = 2

// MaxAmount is the exclusive upper bound of a NUMERIC(18,2) column.
var MaxAmount = decimal.New(1, 16)

// CheckAmount rejects amounts the ledger columns cannot store exactly.
func CheckAmount(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", httpx.ErrValidation, field, AmountScale)
	}
	if amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%w: %s must be less than %s", httpx.ErrValidation, field, MaxAmount.String())
	}
	return nil
}
