package runner

import (
	"context"
	"strings"
	"time"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
)

// BrowserName is the only engine sessions run on.
const BrowserName = "chromium"

// BrowserRaw is what one page load in Chromium yielded.
type BrowserRaw struct {
	Browser       string
	Axe           *AxeResults
	Screenshot    []byte
	RuntimeErrors []model.RuntimeError
}

func (*BrowserRaw) Engine() model.TestType { return model.TestBrowser }

// BrowserRunner loads the page, runs axe-core as a proxy for rendering
// problems, captures a full-page screenshot and collects uncaught
// exceptions. It produces no score of its own.
type BrowserRunner struct {
	sessions browser.SessionFactory
	axe      *AxeEngine
	budget   time.Duration
	logger   logging.Logger
}

func NewBrowserRunner(sessions browser.SessionFactory, axe *AxeEngine, budget time.Duration, logger logging.Logger) *BrowserRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BrowserRunner{sessions: sessions, axe: axe, budget: budget, logger: logger.With(logging.Component("browser_runner"))}
}

func (r *BrowserRunner) Run(ctx context.Context, url string, params Params) (RawResult, error) {
	for _, name := range params.Strings(ParamBrowsers) {
		n := strings.ToLower(name)
		if n != BrowserName && n != "chrome" {
			r.logger.Warn("requested browser not available, using chromium", logging.Field{Key: "browser", Value: name})
		}
	}

	ctx, cancel := withBudget(ctx, r.budget)
	defer cancel()

	raw := &BrowserRaw{Browser: BrowserName}
	err := browser.WithSession(ctx, r.sessions, browser.AcquireOptions{}, func(s browser.Session) error {
		if err := s.Navigate(ctx, url, browser.NavigateOptions{Wait: browser.WaitNetworkIdle}); err != nil {
			return err
		}
		res, err := r.axe.Run(ctx, s)
		if err != nil {
			return err
		}
		raw.Axe = res

		shot, err := s.Screenshot(ctx)
		if err != nil {
			return err
		}
		raw.Screenshot = shot
		raw.RuntimeErrors = s.RuntimeErrors()
		return nil
	})
	if err != nil {
		return nil, newError(model.TestBrowser, "browser check failed", err)
	}
	return raw, nil
}
