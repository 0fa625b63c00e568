package model

// Page is one slice of a most-recent-first listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// Stats is the per-owner dashboard aggregate.
type Stats struct {
	TotalTests     int `json:"totalTests"`
	PendingTests   int `json:"pendingTests"`
	RunningTests   int `json:"runningTests"`
	CompletedTests int `json:"completedTests"`
	FailedTests    int `json:"failedTests"`
	AvgPerformance int `json:"avgPerformance"`
}
