package model

import "time"

// TestType selects the engine a TestRecord is dispatched to.
type TestType string

const (
	TestPerformance   TestType = "performance"
	TestAccessibility TestType = "accessibility"
	TestSecurity      TestType = "security"
	TestSEO           TestType = "seo"
	TestBrowser       TestType = "browser"
	// TestAll is the legacy composite type. Its displayed score is the
	// performance score.
	TestAll TestType = "all"
)

// TestTypes lists every accepted TestType in display order.
var TestTypes = []TestType{TestPerformance, TestAccessibility, TestSecurity, TestSEO, TestBrowser, TestAll}

// Valid reports whether t is one of the known test types.
func (t TestType) Valid() bool {
	for _, v := range TestTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a TestRecord.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition happens without a new run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Role is the caller's privilege level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller identifies who is invoking an orchestrator operation.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the caller carries the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// TestRequest is the input to Create.
type TestRequest struct {
	Owner      string         `json:"owner"`
	URL        string         `json:"url"`
	TestType   TestType       `json:"testType"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// TestRecord is the persisted state of one test.
//
// Results and Score are set iff Status is completed; ErrorMessage is set iff
// Status is failed.
type TestRecord struct {
	ID           string         `json:"id"`
	Owner        string         `json:"owner"`
	URL          string         `json:"url"`
	TestType     TestType       `json:"testType"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Status       Status         `json:"status"`
	Results      *Results       `json:"results,omitempty"`
	Score        *int           `json:"score,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with r.
func (r *TestRecord) Clone() *TestRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Parameters != nil {
		cp.Parameters = make(map[string]any, len(r.Parameters))
		for k, v := range r.Parameters {
			cp.Parameters[k] = v
		}
	}
	if r.Score != nil {
		s := *r.Score
		cp.Score = &s
	}
	// Results are replaced wholesale on every transition, never mutated in place.
	return &cp
}

// RunEntry is one terminal execution of a TestRecord.
type RunEntry struct {
	ID           string    `json:"id"`
	TestID       string    `json:"testId"`
	Status       Status    `json:"status"`
	Score        *int      `json:"score,omitempty"`
	Results      *Results  `json:"results,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Filter narrows list queries.
type Filter struct {
	TestType TestType
}
