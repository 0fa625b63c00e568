package normalize

import (
	"math"
	"strings"

	"github.com/raysh454/sitecheck/internal/model"
)

// BrowserIssueCeiling is the issue count at which the browser heuristic
// bottoms out at zero.
const BrowserIssueCeiling = 20

// BrowserHeuristicScore is max(0, 1 - issues/20). It is a heuristic, not an
// engine score: the browser check reports issues, never a score.
func BrowserHeuristicScore(totalIssues int) float64 {
	return math.Max(0, 1-float64(totalIssues)/BrowserIssueCeiling)
}

// observatoryGrades maps a letter grade to the lowest score that earns it on
// the HTTP Observatory grading chart.
var observatoryGrades = map[string]float64{
	"A+": 100, "A": 90, "A-": 85,
	"B+": 80, "B": 70, "B-": 65,
	"C+": 60, "C": 50, "C-": 45,
	"D+": 40, "D": 30, "D-": 25,
	"F": 0,
}

// GradeScore converts an observatory letter grade to a 0-100 score.
func GradeScore(grade string) (float64, bool) {
	s, ok := observatoryGrades[strings.ToUpper(strings.TrimSpace(grade))]
	return s, ok
}

func unitToDisplayed(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(clamp01(score) * 100))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// DisplayedScore is the single 0-100 number list and dashboard views show
// for a test of type t. ok is false when results carry nothing to score.
func DisplayedScore(t model.TestType, res *model.Results) (int, bool) {
	if res == nil {
		return 0, false
	}
	switch t {
	case model.TestPerformance, model.TestAll:
		if res.Performance == nil {
			return 0, false
		}
		return unitToDisplayed(res.Performance.Score), true
	case model.TestAccessibility:
		if res.Accessibility == nil {
			return 0, false
		}
		return unitToDisplayed(res.Accessibility.Score), true
	case model.TestSEO:
		if res.SEO == nil {
			return 0, false
		}
		return unitToDisplayed(res.SEO.Score), true
	case model.TestSecurity:
		if res.Security == nil {
			return 0, false
		}
		if res.Security.Score != nil {
			return int(math.Round(*res.Security.Score)), true
		}
		if s, ok := GradeScore(res.Security.Grade); ok {
			return int(s), true
		}
		return 0, false
	case model.TestBrowser:
		if res.Browser == nil {
			return 0, false
		}
		if res.Browser.Score != nil {
			return unitToDisplayed(*res.Browser.Score), true
		}
		return unitToDisplayed(BrowserHeuristicScore(res.Browser.Summary.TotalIssues)), true
	}
	return 0, false
}
