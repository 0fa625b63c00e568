package model

import "time"

// Results is keyed by engine. A single-engine test fills exactly one field;
// the composite "all" type fills several.
type Results struct {
	Performance   *PerformanceResult   `json:"performance,omitempty"`
	Accessibility *AccessibilityResult `json:"accessibility,omitempty"`
	SEO           *SEOResult           `json:"seo,omitempty"`
	Security      *SecurityResult      `json:"security,omitempty"`
	Browser       *BrowserResult       `json:"browser,omitempty"`

	// Synthetic marks demo output that no engine produced.
	Synthetic bool `json:"synthetic,omitempty"`
}

// PerformanceMetrics holds timing metrics in seconds unless noted.
type PerformanceMetrics struct {
	FCP float64 `json:"fcp"`
	LCP float64 `json:"lcp"`
	CLS float64 `json:"cls"`
	TTI float64 `json:"tti"`
	// TBT is total blocking time in milliseconds.
	TBT *float64 `json:"tbt,omitempty"`
	SI  *float64 `json:"si,omitempty"`
}

type PerformanceResult struct {
	Score   float64            `json:"score"`
	Metrics PerformanceMetrics `json:"metrics"`
}

// IssueNode is one offending element.
type IssueNode struct {
	HTML   string   `json:"html,omitempty"`
	Target []string `json:"target,omitempty"`
}

// Issue is an engine finding. Description and Impact are always set.
type Issue struct {
	RuleID         string      `json:"ruleId,omitempty"`
	Description    string      `json:"description"`
	Impact         string      `json:"impact"`
	Help           string      `json:"help,omitempty"`
	HelpURL        string      `json:"helpUrl,omitempty"`
	Element        string      `json:"element,omitempty"`
	Nodes          []IssueNode `json:"nodes,omitempty"`
	Recommendation string      `json:"recommendation,omitempty"`
	Severity       string      `json:"severity,omitempty"`
	Location       string      `json:"location,omitempty"`
}

type AccessibilityResult struct {
	Score          float64 `json:"score"`
	Issues         []Issue `json:"issues"`
	PassCount      int     `json:"passCount"`
	ViolationCount int     `json:"violationCount"`
}

// PageMeta is the on-page SEO basics read from the fetched document.
type PageMeta struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription,omitempty"`
	Canonical       string `json:"canonical,omitempty"`
	Lang            string `json:"lang,omitempty"`
	H1Count         int    `json:"h1Count"`
	Robots          string `json:"robots,omitempty"`
}

type SEOResult struct {
	Score    float64   `json:"score"`
	Issues   []Issue   `json:"issues"`
	PageMeta *PageMeta `json:"pageMeta,omitempty"`
}

// SecurityResult is an HTTP observatory scan. Score is on a 0-100 scale and
// may be absent when only a grade was reported.
type SecurityResult struct {
	Score            *float64  `json:"score,omitempty"`
	Grade            string    `json:"grade,omitempty"`
	StatusCode       int       `json:"statusCode,omitempty"`
	AlgorithmVersion int       `json:"algorithmVersion,omitempty"`
	TestsPassed      int       `json:"testsPassed"`
	TestsFailed      int       `json:"testsFailed"`
	TestsQuantity    int       `json:"testsQuantity"`
	ScannedAt        time.Time `json:"scannedAt"`
	DetailsURL       string    `json:"detailsUrl,omitempty"`
	ScanType         string    `json:"scanType,omitempty"`
}

// RuntimeError is an uncaught exception observed in the page.
type RuntimeError struct {
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type BrowserSummary struct {
	TotalIssues int `json:"totalIssues"`
	ErrorCount  int `json:"errorCount"`
}

// BrowserResult carries no engine score; Score is derived from the issue
// count when ScoreDerived is set.
type BrowserResult struct {
	Score         *float64       `json:"score,omitempty"`
	ScoreDerived  bool           `json:"scoreDerived,omitempty"`
	Browser       string         `json:"browser"`
	Issues        []Issue        `json:"issues"`
	Screenshot    string         `json:"screenshot,omitempty"`
	RuntimeErrors []RuntimeError `json:"runtimeErrors,omitempty"`
	Summary       BrowserSummary `json:"summary"`
}
