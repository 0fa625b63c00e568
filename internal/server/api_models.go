package server

import "github.com/raysh454/sitecheck/internal/model"

// CreateTestRequest is the payload for creating a test.
type CreateTestRequest struct {
	URL      string         `json:"url" example:"https://example.com"`
	TestType model.TestType `json:"testType" example:"performance" enums:"performance,accessibility,security,seo,browser,all"`
	// Parameters are engine options, e.g. {"scanType":"baseline"} or
	// {"browsers":["chromium"]}.
	Parameters map[string]any `json:"parameters,omitempty"`
	// Owner is honored for admin callers only.
	Owner string `json:"owner,omitempty" example:""`
}

// DemoRequest selects which sample results to return.
type DemoRequest struct {
	TestType model.TestType `json:"testType" example:"all"`
}

// TestPage is one page of tests.
type TestPage struct {
	Items      []*model.TestRecord `json:"items"`
	Page       int                 `json:"page" example:"1"`
	PageSize   int                 `json:"pageSize" example:"10"`
	TotalCount int                 `json:"totalCount" example:"25"`
	TotalPages int                 `json:"totalPages" example:"3"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// RunFailedResponse is returned when the engine fails. Test is the record as
// persisted with status failed.
type RunFailedResponse struct {
	Error string            `json:"error" example:"runner: security runner: observatory returned status 503"`
	Test  *model.TestRecord `json:"test,omitempty"`
}
