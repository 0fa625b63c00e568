package runner

import (
	"context"
	"time"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/model"
)

type AccessibilityRaw struct {
	Axe *AxeResults
}

func (*AccessibilityRaw) Engine() model.TestType { return model.TestAccessibility }

// AccessibilityRunner loads the page to network idle and runs axe-core
// against the WCAG 2.0/2.1 A and AA rule tags.
type AccessibilityRunner struct {
	sessions browser.SessionFactory
	axe      *AxeEngine
	budget   time.Duration
}

func NewAccessibilityRunner(sessions browser.SessionFactory, axe *AxeEngine, budget time.Duration) *AccessibilityRunner {
	return &AccessibilityRunner{sessions: sessions, axe: axe, budget: budget}
}

func (r *AccessibilityRunner) Run(ctx context.Context, url string, _ Params) (RawResult, error) {
	ctx, cancel := withBudget(ctx, r.budget)
	defer cancel()

	var res *AxeResults
	err := browser.WithSession(ctx, r.sessions, browser.AcquireOptions{}, func(s browser.Session) error {
		if err := s.Navigate(ctx, url, browser.NavigateOptions{Wait: browser.WaitNetworkIdle}); err != nil {
			return err
		}
		out, err := r.axe.Run(ctx, s)
		if err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, newError(model.TestAccessibility, "axe audit failed", err)
	}
	return &AccessibilityRaw{Axe: res}, nil
}
