package testutil

import (
	"strings"

	"github.com/raysh454/sitecheck/internal/runner"
)

// ─── Engine fixtures ───────────────────────────────────────────────────

func ptr(f float64) *float64 { return &f }

// PerformanceReport is a Lighthouse report with the given category score
// and FCP 1.2s, LCP 2.5s, CLS 0.05, TTI 3.1s, TBT 150ms.
func PerformanceReport(score float64) *runner.LighthouseReport {
	return &runner.LighthouseReport{
		LighthouseVersion: "12.0.0",
		Categories: map[string]runner.LighthouseCategory{
			"performance": {ID: "performance", Score: ptr(score)},
		},
		Audits: map[string]runner.LighthouseAudit{
			"first-contentful-paint":   {ID: "first-contentful-paint", NumericValue: ptr(1200)},
			"largest-contentful-paint": {ID: "largest-contentful-paint", NumericValue: ptr(2500)},
			"cumulative-layout-shift":  {ID: "cumulative-layout-shift", NumericValue: ptr(0.05)},
			"interactive":              {ID: "interactive", NumericValue: ptr(3100)},
			"total-blocking-time":      {ID: "total-blocking-time", NumericValue: ptr(150)},
		},
	}
}

// SEOReport is a Lighthouse SEO report with n failing audits (scores
// alternating 0 and 0.5) and one passing audit.
func SEOReport(score float64, failing int) *runner.LighthouseReport {
	rep := &runner.LighthouseReport{
		Categories: map[string]runner.LighthouseCategory{"seo": {ID: "seo", Score: ptr(score)}},
		Audits:     map[string]runner.LighthouseAudit{},
	}
	cat := rep.Categories["seo"]
	for i := 0; i < failing; i++ {
		id := "audit-" + strings.Repeat("x", i+1)
		s := 0.0
		if i%2 == 1 {
			s = 0.5
		}
		rep.Audits[id] = runner.LighthouseAudit{ID: id, Title: "Failing " + id, Description: "Fix " + id, Score: ptr(s), ScoreDisplayMode: "binary"}
		cat.AuditRefs = append(cat.AuditRefs, runner.LighthouseAuditRef{ID: id, Weight: 1})
	}
	rep.Audits["document-title"] = runner.LighthouseAudit{ID: "document-title", Title: "Has title", Score: ptr(1), ScoreDisplayMode: "binary"}
	cat.AuditRefs = append(cat.AuditRefs, runner.LighthouseAuditRef{ID: "document-title", Weight: 1})
	rep.Categories["seo"] = cat
	return rep
}

// AxeResults builds axe output with the given number of violations and
// passes.
func AxeResults(violations, passes int) *runner.AxeResults {
	res := &runner.AxeResults{Version: "4.10.2"}
	for i := 0; i < violations; i++ {
		res.Violations = append(res.Violations, runner.AxeRule{
			ID:          "rule-" + strings.Repeat("v", i+1),
			Impact:      "serious",
			Description: "Violation description",
			Help:        "Help text",
			HelpURL:     "https://dequeuniversity.com/rules/axe/4.10/color-contrast",
			Tags:        []string{"wcag2aa"},
			Nodes:       []runner.AxeNode{{HTML: "<p>low contrast</p>", Target: []string{"p"}, Impact: "serious"}},
		})
	}
	for i := 0; i < passes; i++ {
		res.Passes = append(res.Passes, runner.AxeRule{ID: "pass-" + strings.Repeat("p", i+1)})
	}
	return res
}

// AxeEvaluator answers the injection probe with true and the axe run with
// res, the way a page would.
func AxeEvaluator(res *runner.AxeResults) func(script string, out any) error {
	return func(script string, out any) error {
		if strings.Contains(script, "axe.run(") {
			return DecodeInto(out, res)
		}
		return DecodeInto(out, true)
	}
}
