package browser

import (
	"context"
	"fmt"

	"github.com/raysh454/sitecheck/internal/model"
)

// WaitCondition decides when Navigate returns.
type WaitCondition string

const (
	// WaitNetworkIdle waits for the load event and then for the network to
	// stay quiet for Config.IdleQuietPeriod.
	WaitNetworkIdle WaitCondition = "networkidle"
	// WaitLoad returns at the load event.
	WaitLoad WaitCondition = "load"
	// WaitDOMContentLoaded returns once the document body is parsed, without
	// waiting for subresources.
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
)

type AcquireOptions struct {
	// RemoteDebugging pins a local debugging port so an external tool can
	// attach to the same browser (see Session.DebugPort).
	RemoteDebugging bool
}

type NavigateOptions struct {
	Wait WaitCondition
}

// Session is one isolated browser process. It is not safe to share between
// runs; acquire one per run and Close it on every path.
type Session interface {
	ID() string
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	// Evaluate runs script in the page, awaiting a returned promise, and
	// decodes the JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
	Screenshot(ctx context.Context) ([]byte, error)
	// RuntimeErrors returns uncaught page exceptions seen so far.
	RuntimeErrors() []model.RuntimeError
	// DebugPort is zero unless acquired with RemoteDebugging.
	DebugPort() int
	Close() error
}

// SessionFactory launches sessions.
type SessionFactory interface {
	Acquire(ctx context.Context, opts AcquireOptions) (Session, error)
}

// NavigationError reports a page that failed to load within its budget.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// WithSession acquires a session, hands it to fn and always closes it, also
// when fn fails or panics.
func WithSession(ctx context.Context, f SessionFactory, opts AcquireOptions, fn func(Session) error) error {
	s, err := f.Acquire(ctx, opts)
	if err != nil {
		return fmt.Errorf("acquire browser session: %w", err)
	}
	defer s.Close()
	return fn(s)
}
