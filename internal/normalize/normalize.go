// Package normalize turns engine output into the stored results shape and
// derives the displayed score per test type.
package normalize

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/runner"
)

// MaxSEOIssues caps the SEO issue list to the first failing audits.
const MaxSEOIssues = 5

var ErrMalformed = errors.New("malformed engine output")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Normalize converts raw into Results for a test of type t.
func Normalize(t model.TestType, raw runner.RawResult) (*model.Results, error) {
	if raw == nil {
		return nil, malformed("no output")
	}
	if raw.Engine() != t {
		return nil, malformed("%s output for a %s test", raw.Engine(), t)
	}
	res := &model.Results{}
	if err := fill(res, raw); err != nil {
		return nil, err
	}
	return res, nil
}

func fill(res *model.Results, raw runner.RawResult) error {
	var err error
	switch r := raw.(type) {
	case *runner.PerformanceRaw:
		res.Performance, err = performance(r)
	case *runner.AccessibilityRaw:
		res.Accessibility, err = accessibility(r)
	case *runner.SEORaw:
		res.SEO, err = seo(r)
	case *runner.SecurityRaw:
		res.Security, err = security(r)
	case *runner.BrowserRaw:
		res.Browser, err = browserCompat(r)
	case *runner.CompositeRaw:
		if len(r.Parts) == 0 {
			return malformed("composite run has no parts")
		}
		for _, t := range sortedTypes(r.Parts) {
			if err := fill(res, r.Parts[t]); err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
		}
	default:
		return malformed("unknown output type %T", raw)
	}
	return err
}

func sortedTypes(m map[model.TestType]runner.RawResult) []model.TestType {
	out := make([]model.TestType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func categoryScore(rep *runner.LighthouseReport, id string) (float64, error) {
	cat := rep.Category(id)
	if cat == nil || cat.Score == nil {
		return 0, malformed("lighthouse report has no %s score", id)
	}
	return clamp01(*cat.Score), nil
}

func auditValue(rep *runner.LighthouseReport, id string) *float64 {
	a, ok := rep.Audits[id]
	if !ok || a.NumericValue == nil {
		return nil
	}
	v := *a.NumericValue
	return &v
}

func seconds(rep *runner.LighthouseReport, id string) float64 {
	if v := auditValue(rep, id); v != nil {
		return *v / 1000
	}
	return 0
}

func performance(r *runner.PerformanceRaw) (*model.PerformanceResult, error) {
	if r.Report == nil {
		return nil, malformed("missing lighthouse report")
	}
	score, err := categoryScore(r.Report, "performance")
	if err != nil {
		return nil, err
	}
	m := model.PerformanceMetrics{
		FCP: seconds(r.Report, "first-contentful-paint"),
		LCP: seconds(r.Report, "largest-contentful-paint"),
		TTI: seconds(r.Report, "interactive"),
		TBT: auditValue(r.Report, "total-blocking-time"),
	}
	if cls := auditValue(r.Report, "cumulative-layout-shift"); cls != nil {
		m.CLS = *cls
	}
	if si := auditValue(r.Report, "speed-index"); si != nil {
		s := *si / 1000
		m.SI = &s
	}
	return &model.PerformanceResult{Score: score, Metrics: m}, nil
}

func impactOf(score float64) string {
	if score < 0.5 {
		return "serious"
	}
	return "moderate"
}

// uncountedModes never count as failures whatever their score.
var uncountedModes = map[string]bool{"manual": true, "notApplicable": true, "informative": true}

func seo(r *runner.SEORaw) (*model.SEOResult, error) {
	if r.Report == nil {
		return nil, malformed("missing lighthouse report")
	}
	score, err := categoryScore(r.Report, "seo")
	if err != nil {
		return nil, err
	}

	issues := []model.Issue{}
	for _, ref := range r.Report.Category("seo").AuditRefs {
		if len(issues) == MaxSEOIssues {
			break
		}
		a, ok := r.Report.Audits[ref.ID]
		if !ok || a.Score == nil || *a.Score >= 1 {
			continue
		}
		if uncountedModes[a.ScoreDisplayMode] {
			continue
		}
		issues = append(issues, model.Issue{
			RuleID:         a.ID,
			Description:    a.Title,
			Impact:         impactOf(*a.Score),
			Recommendation: a.Description,
		})
	}
	return &model.SEOResult{Score: score, Issues: issues, PageMeta: r.PageMeta}, nil
}

func axeIssues(rules []runner.AxeRule) []model.Issue {
	issues := make([]model.Issue, 0, len(rules))
	for _, v := range rules {
		impact := v.Impact
		if impact == "" {
			impact = "minor"
		}
		issue := model.Issue{
			RuleID:      v.ID,
			Description: v.Description,
			Impact:      impact,
			Help:        v.Help,
			HelpURL:     v.HelpURL,
		}
		for _, n := range v.Nodes {
			issue.Nodes = append(issue.Nodes, model.IssueNode{HTML: n.HTML, Target: n.Target})
		}
		if len(v.Nodes) > 0 {
			issue.Element = v.Nodes[0].HTML
			if len(v.Nodes[0].Target) > 0 {
				issue.Location = v.Nodes[0].Target[0]
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

// axeScore is passes/(passes+violations) rounded to two decimals; a page
// with no applicable rules scores 1.
func axeScore(res *runner.AxeResults) float64 {
	total := len(res.Passes) + len(res.Violations)
	if total == 0 {
		return 1
	}
	return math.Round(float64(len(res.Passes))/float64(total)*100) / 100
}

func accessibility(r *runner.AccessibilityRaw) (*model.AccessibilityResult, error) {
	if r.Axe == nil {
		return nil, malformed("missing axe results")
	}
	return &model.AccessibilityResult{
		Score:          axeScore(r.Axe),
		Issues:         axeIssues(r.Axe.Violations),
		PassCount:      len(r.Axe.Passes),
		ViolationCount: len(r.Axe.Violations),
	}, nil
}

func security(r *runner.SecurityRaw) (*model.SecurityResult, error) {
	s := r.Scan
	if s == nil {
		return nil, malformed("missing observatory scan")
	}
	if s.Score == nil && s.Grade == "" {
		return nil, malformed("observatory scan has neither score nor grade")
	}
	out := &model.SecurityResult{
		Grade:            s.Grade,
		StatusCode:       s.StatusCode,
		AlgorithmVersion: s.AlgorithmVersion,
		TestsPassed:      s.TestsPassed,
		TestsFailed:      s.TestsFailed,
		TestsQuantity:    s.TestsQuantity,
		DetailsURL:       s.DetailsURL,
		ScanType:         r.ScanType,
	}
	if s.Score != nil {
		v := *s.Score
		out.Score = &v
	}
	if s.ScannedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, s.ScannedAt); err == nil {
			out.ScannedAt = ts.UTC()
		}
	}
	return out, nil
}

func browserCompat(r *runner.BrowserRaw) (*model.BrowserResult, error) {
	if r.Axe == nil {
		return nil, malformed("missing axe results")
	}
	issues := axeIssues(r.Axe.Violations)
	score := BrowserHeuristicScore(len(issues))
	out := &model.BrowserResult{
		Score:         &score,
		ScoreDerived:  true,
		Browser:       r.Browser,
		Issues:        issues,
		RuntimeErrors: r.RuntimeErrors,
		Summary: model.BrowserSummary{
			TotalIssues: len(issues),
			ErrorCount:  len(r.RuntimeErrors),
		},
	}
	if len(r.Screenshot) > 0 {
		out.Screenshot = "data:" + http.DetectContentType(r.Screenshot) + ";base64," + base64.StdEncoding.EncodeToString(r.Screenshot)
	}
	return out, nil
}
