package runner

import (
	"context"
	"time"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/model"
)

// PerformanceRaw is a Lighthouse report limited to the performance category.
type PerformanceRaw struct {
	Report *LighthouseReport
}

func (*PerformanceRaw) Engine() model.TestType { return model.TestPerformance }

// PerformanceRunner launches a browser with a debugging port and lets
// Lighthouse drive it.
type PerformanceRunner struct {
	sessions browser.SessionFactory
	auditor  Auditor
	budget   time.Duration
}

func NewPerformanceRunner(sessions browser.SessionFactory, auditor Auditor, budget time.Duration) *PerformanceRunner {
	return &PerformanceRunner{sessions: sessions, auditor: auditor, budget: budget}
}

func (r *PerformanceRunner) Run(ctx context.Context, url string, _ Params) (RawResult, error) {
	report, err := lighthouseAudit(ctx, r.sessions, r.auditor, r.budget, url, "performance")
	if err != nil {
		return nil, newError(model.TestPerformance, "lighthouse audit failed", err)
	}
	return &PerformanceRaw{Report: report}, nil
}

func lighthouseAudit(ctx context.Context, sessions browser.SessionFactory, auditor Auditor, budget time.Duration, url, category string) (*LighthouseReport, error) {
	ctx, cancel := withBudget(ctx, budget)
	defer cancel()

	var report *LighthouseReport
	err := browser.WithSession(ctx, sessions, browser.AcquireOptions{RemoteDebugging: true}, func(s browser.Session) error {
		rep, err := auditor.Audit(ctx, url, s.DebugPort(), []string{category})
		if err != nil {
			return err
		}
		report = rep
		return nil
	})
	return report, err
}
