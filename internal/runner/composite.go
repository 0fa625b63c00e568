package runner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/sitecheck/internal/model"
)

// CompositeRaw holds one raw result per engine of an "all" run.
type CompositeRaw struct {
	Parts map[model.TestType]RawResult
}

func (*CompositeRaw) Engine() model.TestType { return model.TestAll }

type compositePart struct {
	testType model.TestType
	runner   Runner
}

// CompositeRunner runs several engines concurrently. The first failure
// cancels the rest and fails the whole run.
type CompositeRunner struct {
	parts       []compositePart
	concurrency int
}

// NewCompositeRunner runs the given engines in order of types, at most
// concurrency at a time (unbounded when <= 0).
func NewCompositeRunner(types []model.TestType, runners map[model.TestType]Runner, concurrency int) *CompositeRunner {
	c := &CompositeRunner{concurrency: concurrency}
	for _, t := range types {
		if r, ok := runners[t]; ok && r != nil {
			c.parts = append(c.parts, compositePart{testType: t, runner: r})
		}
	}
	return c
}

func (c *CompositeRunner) Run(ctx context.Context, url string, params Params) (RawResult, error) {
	if len(c.parts) == 0 {
		return nil, newError(model.TestAll, "no engines configured", nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	var mu sync.Mutex
	out := &CompositeRaw{Parts: make(map[model.TestType]RawResult, len(c.parts))}
	for _, p := range c.parts {
		g.Go(func() error {
			raw, err := p.runner.Run(gctx, url, params)
			if err != nil {
				return err
			}
			mu.Lock()
			out.Parts[p.testType] = raw
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newError(model.TestAll, fmt.Sprintf("%d-engine run failed", len(c.parts)), err)
	}
	return out, nil
}
