package mappings

import "time"

// Role names the semantic purpose an account serves in system postings.
type Role string

const (
	RoleICReceivable Role = "ic_receivable"
	RoleICPayable    Role = "ic_payable"
	RoleRevenue      Role = "revenue"
	RoleExpense      Role = "expense"
)

// Roles lists every role a company must map before intercompany postings.
var Roles = []Role{RoleICReceivable, RoleICPayable, RoleRevenue, RoleExpense}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ConventionalCodes is the chart-of-accounts convention used to bootstrap a
// company's mapping when its chart follows the default numbering.
var ConventionalCodes = map[Role]string{
	RoleICReceivable: "1150",
	RoleICPayable:    "2150",
	RoleRevenue:      "4000",
	RoleExpense:      "5000",
}

// AccountMapping links a company role to a ledger account.
type AccountMapping struct {
	CompanyID int64     `json:"companyId"`
	Role      Role      `json:"role"`
	AccountID int64     `json:"accountId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetMappingsRequest replaces some or all role assignments of a company.
type SetMappingsRequest struct {
	Roles map[string]int64 `json:"roles" validate:"required,min=1,dive,keys,oneof=ic_receivable ic_payable revenue expense,endkeys,gt=0"`
}
