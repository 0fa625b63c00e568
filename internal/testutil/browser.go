package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/model"
)

// ─── Browser sessions ──────────────────────────────────────────────────

// FakeSessionFactory hands out FakeSessions and counts how many were
// acquired and closed, so tests can assert sessions never leak.
type FakeSessionFactory struct {
	AcquireErr  error
	NavigateErr error
	// Evaluate answers every script; nil leaves out untouched.
	Evaluate      func(script string, out any) error
	Screenshot    []byte
	ScreenshotErr error
	RuntimeErrs   []model.RuntimeError
	Port          int

	mu           sync.Mutex
	acquired     int
	closed       int
	Navigated    []string
	Scripts      []string
	AcquiredWith []browser.AcquireOptions
}

func (f *FakeSessionFactory) Acquire(ctx context.Context, opts browser.AcquireOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	f.AcquiredWith = append(f.AcquiredWith, opts)
	port := 0
	if opts.RemoteDebugging {
		port = f.Port
		if port == 0 {
			port = 9222
		}
	}
	return &FakeSession{id: uuid.New().String(), factory: f, port: port}, nil
}

func (f *FakeSessionFactory) Acquired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired
}

func (f *FakeSessionFactory) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeSession is the session FakeSessionFactory returns.
type FakeSession struct {
	id      string
	port    int
	factory *FakeSessionFactory

	once sync.Once
}

func (s *FakeSession) ID() string     { return s.id }
func (s *FakeSession) DebugPort() int { return s.port }

func (s *FakeSession) Navigate(ctx context.Context, url string, _ browser.NavigateOptions) error {
	f := s.factory
	f.mu.Lock()
	f.Navigated = append(f.Navigated, url)
	f.mu.Unlock()
	if f.NavigateErr != nil {
		return &browser.NavigationError{URL: url, Err: f.NavigateErr}
	}
	return ctx.Err()
}

func (s *FakeSession) Evaluate(ctx context.Context, script string, out any) error {
	f := s.factory
	f.mu.Lock()
	f.Scripts = append(f.Scripts, script)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Evaluate == nil {
		return nil
	}
	return f.Evaluate(script, out)
}

func (s *FakeSession) Screenshot(context.Context) ([]byte, error) {
	if s.factory.ScreenshotErr != nil {
		return nil, fmt.Errorf("capture screenshot: %w", s.factory.ScreenshotErr)
	}
	return s.factory.Screenshot, nil
}

func (s *FakeSession) RuntimeErrors() []model.RuntimeError {
	return append([]model.RuntimeError(nil), s.factory.RuntimeErrs...)
}

func (s *FakeSession) Close() error {
	s.once.Do(func() {
		s.factory.mu.Lock()
		s.factory.closed++
		s.factory.mu.Unlock()
	})
	return nil
}
