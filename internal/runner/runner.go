package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/raysh454/sitecheck/internal/model"
)

// ErrNotSupported is returned by Registry.Lookup for a test type with no
// engine.
var ErrNotSupported = errors.New("test type not supported")

// Runner executes one engine against a URL. Implementations never return
// placeholder data: either a real raw result or an *Error.
type Runner interface {
	Run(ctx context.Context, url string, params Params) (RawResult, error)
}

// RawResult is an engine's unnormalized output.
type RawResult interface {
	Engine() model.TestType
}

// Error is an engine failure.
type Error struct {
	Runner  model.TestType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s runner: %s: %v", e.Runner, e.Message, e.Err)
	}
	return fmt.Sprintf("%s runner: %s", e.Runner, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(runner model.TestType, msg string, err error) *Error {
	return &Error{Runner: runner, Message: msg, Err: err}
}

// Registry maps test types to runners. The table is fixed at construction.
type Registry struct {
	runners map[model.TestType]Runner
}

func NewRegistry(runners map[model.TestType]Runner) *Registry {
	cp := make(map[model.TestType]Runner, len(runners))
	for k, v := range runners {
		if v != nil {
			cp[k] = v
		}
	}
	return &Registry{runners: cp}
}

// Lookup returns the runner for t or an error wrapping ErrNotSupported.
func (r *Registry) Lookup(t model.TestType) (Runner, error) {
	if r != nil {
		if run, ok := r.runners[t]; ok {
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotSupported, t)
}

// Types lists the registered test types, sorted.
func (r *Registry) Types() []model.TestType {
	out := make([]model.TestType, 0, len(r.runners))
	for t := range r.runners {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}
