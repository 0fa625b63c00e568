package app

import (
	"context"
	"fmt"

	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/normalize"
)

// DemoResult is fixed sample output for UI previews. It is not the result of
// any engine run.
type DemoResult struct {
	TestType model.TestType `json:"testType"`
	Results  *model.Results `json:"results"`
	Score    int            `json:"score"`
}

// RunDemo returns labeled synthetic results for testType. Nothing is
// persisted and no engine is invoked.
func (o *Orchestrator) RunDemo(ctx context.Context, testType model.TestType) (*DemoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, newErr(KindInternal, "demo canceled", err)
	}
	if !testType.Valid() {
		return nil, newErr(KindValidation, fmt.Sprintf("unknown testType %q", testType), nil)
	}
	res := demoResults(testType)
	score, _ := normalize.DisplayedScore(testType, res)
	return &DemoResult{TestType: testType, Results: res, Score: score}, nil
}

func demoResults(t model.TestType) *model.Results {
	res := &model.Results{Synthetic: true}
	want := func(x model.TestType) bool { return t == x || t == model.TestAll }

	if want(model.TestPerformance) {
		tbt := 180.0
		res.Performance = &model.PerformanceResult{
			Score:   0.85,
			Metrics: model.PerformanceMetrics{FCP: 1.5, LCP: 2.3, CLS: 0.1, TTI: 3.2, TBT: &tbt},
		}
	}
	if want(model.TestAccessibility) {
		res.Accessibility = &model.AccessibilityResult{
			Score: 0.92,
			Issues: []model.Issue{{
				RuleID: "image-alt", Description: "Images do not have alt text", Impact: "serious", Element: "img",
			}},
			PassCount:      11,
			ViolationCount: 1,
		}
	}
	if want(model.TestSEO) {
		res.SEO = &model.SEOResult{
			Score: 0.88,
			Issues: []model.Issue{{
				RuleID: "meta-description", Description: "Document does not have a meta description",
				Impact: "moderate", Recommendation: "Add a meta description tag",
			}},
		}
	}
	if want(model.TestSecurity) {
		score := 75.0
		res.Security = &model.SecurityResult{
			Score: &score, Grade: "B", TestsPassed: 8, TestsFailed: 2, TestsQuantity: 10, ScanType: "baseline",
		}
	}
	if t == model.TestBrowser {
		issues := []model.Issue{{Description: "Buttons must have discernible text", Impact: "critical", Severity: "error"}}
		derived := normalize.BrowserHeuristicScore(len(issues))
		res.Browser = &model.BrowserResult{
			Score: &derived, ScoreDerived: true, Browser: "chromium", Issues: issues,
			Summary: model.BrowserSummary{TotalIssues: len(issues)},
		}
	}
	return res
}
