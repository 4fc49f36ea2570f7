package shared

// ListFilters represents standard list filters for master data.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	TenantID int64
}
