package companies

import (
	"time"
)

// CompanyType classifies a company within its tenant.
type CompanyType string

const (
	TypeManufacturer CompanyType = "manufacturer"
	TypeDistributor  CompanyType = "distributor"
	TypePlant        CompanyType = "plant"
)

// Valid reports whether t is a known company type.
func (t CompanyType) Valid() bool {
	switch t {
	case TypeManufacturer, TypeDistributor, TypePlant:
		return true
	}
	return false
}

// Company represents a legal entity keeping its own ledger.
type Company struct {
	ID        int64       `json:"id"`
	TenantID  int64       `json:"tenantId"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      CompanyType `json:"type"`
	Currency  string      `json:"currency"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CreateCompanyRequest is the onboarding payload.
type CreateCompanyRequest struct {
	TenantID int64  `json:"tenantId" validate:"required,gt=0"`
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=manufacturer distributor plant"`
	Currency string `json:"currency" validate:"required,len=3"`
}
