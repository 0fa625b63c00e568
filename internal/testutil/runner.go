package testutil

import (
	"context"
	"sync"

	"github.com/raysh454/sitecheck/internal/runner"
)

// ─── Runners ───────────────────────────────────────────────────────────

// FakeRunner returns Raw or Err. Hook, when set, runs first and may block
// on ctx.
type FakeRunner struct {
	Raw  runner.RawResult
	Err  error
	Hook func(ctx context.Context, url string, params runner.Params) error

	mu    sync.Mutex
	calls []string
}

func (f *FakeRunner) Run(ctx context.Context, url string, params runner.Params) (runner.RawResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.Hook != nil {
		if err := f.Hook(ctx, url, params); err != nil {
			return nil, err
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Raw, nil
}

// Calls returns the URLs Run was invoked with.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeAuditor returns Report or Err and remembers the ports it was given.
type FakeAuditor struct {
	Report *runner.LighthouseReport
	Err    error

	mu    sync.Mutex
	Ports []int
	Cats  [][]string
}

func (a *FakeAuditor) Audit(ctx context.Context, _ string, port int, categories []string) (*runner.LighthouseReport, error) {
	a.mu.Lock()
	a.Ports = append(a.Ports, port)
	a.Cats = append(a.Cats, categories)
	a.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.Report, a.Err
}
