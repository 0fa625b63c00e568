package runner

import (
	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// Deps are the collaborators the built-in engines need.
type Deps struct {
	Sessions browser.SessionFactory
	Auditor  Auditor
	Web      webclient.WebClient
	Axe      *AxeEngine
}

// CompositeTypes are the engines the legacy "all" type runs.
var CompositeTypes = []model.TestType{
	model.TestPerformance,
	model.TestAccessibility,
	model.TestSEO,
	model.TestSecurity,
}

// NewDefaultRegistry wires every built-in engine.
func NewDefaultRegistry(cfg Config, deps Deps, logger logging.Logger) *Registry {
	axe := deps.Axe
	if axe == nil {
		axe = NewAxeEngine(cfg.AxeScriptPath, cfg.AxeScriptURL, deps.Web, cfg.AxeTags)
	}
	auditor := deps.Auditor
	if auditor == nil {
		auditor = NewLighthouseCLI(cfg.LighthousePath, cfg.LighthouseArgs, logger)
	}
	var pageMeta webclient.WebClient
	if cfg.SEOPageMeta {
		pageMeta = deps.Web
	}

	runners := map[model.TestType]Runner{
		model.TestPerformance:   NewPerformanceRunner(deps.Sessions, auditor, cfg.LighthouseTimeout),
		model.TestSEO:           NewSEORunner(deps.Sessions, auditor, pageMeta, cfg.LighthouseTimeout, logger),
		model.TestAccessibility: NewAccessibilityRunner(deps.Sessions, axe, cfg.AccessibilityTimeout),
		model.TestBrowser:       NewBrowserRunner(deps.Sessions, axe, cfg.BrowserTimeout, logger),
		model.TestSecurity:      NewSecurityRunner(deps.Web, cfg.ObservatoryURL, cfg.SecurityTimeout, logger),
	}
	runners[model.TestAll] = NewCompositeRunner(CompositeTypes, runners, cfg.CompositeConcurrency)
	return NewRegistry(runners)
}
