package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/store"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// Components is the wired runtime built from a Config.
type Components struct {
	Config       *Config
	Logger       logging.Logger
	Store        store.RecordStore
	Web          webclient.WebClient
	Sessions     browser.SessionFactory
	Runners      *runner.Registry
	Events       *events.Hub
	Orchestrator *Orchestrator
}

// ComponentOption overrides a collaborator before wiring, mostly for tests
// and the one-shot CLI.
type ComponentOption func(*Components)

func WithStore(s store.RecordStore) ComponentOption {
	return func(c *Components) { c.Store = s }
}

func WithSessions(f browser.SessionFactory) ComponentOption {
	return func(c *Components) { c.Sessions = f }
}

func WithRunners(r *runner.Registry) ComponentOption {
	return func(c *Components) { c.Runners = r }
}

// NewComponents opens the store and builds the engines and orchestrator.
func NewComponents(ctx context.Context, cfg *Config, logger logging.Logger, opts ...ComponentOption) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("app: nil logger provided")
	}

	c := &Components{Config: cfg, Logger: logger, Events: events.NewHub(events.DefaultBuffer)}
	for _, opt := range opts {
		opt(c)
	}

	if c.Store == nil {
		st, err := store.Open(ctx, cfg.Store, logger)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		c.Store = st
	}

	web, err := webclient.NewNetHTTPClient(cfg.WebClient, logger, nil)
	if err != nil {
		c.Store.Close()
		return nil, fmt.Errorf("creating webclient: %w", err)
	}
	c.Web = web

	if c.Sessions == nil {
		c.Sessions = browser.NewChromeFactory(cfg.Browser, logger)
	}
	if c.Runners == nil {
		c.Runners = runner.NewDefaultRegistry(cfg.Runners, runner.Deps{
			Sessions: c.Sessions,
			Web:      c.Web,
		}, logger.With(logging.Component("runner")))
	}

	c.Orchestrator = NewOrchestrator(c.Store, c.Runners, logger,
		WithEvents(c.Events),
		WithLocalURLs(cfg.AllowLocalURLs),
	)
	logger.Info("components initialized",
		logging.Field{Key: "store", Value: cfg.Store.Driver},
		logging.Field{Key: "runners", Value: c.Runners.Types()})
	return c, nil
}

// Close releases the store, HTTP client and event subscribers.
func (c *Components) Close() error {
	if c.Events != nil {
		c.Events.Close()
	}
	var errs []error
	if c.Web != nil {
		errs = append(errs, c.Web.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}
