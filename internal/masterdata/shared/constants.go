package shared

const (
	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)
