package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// AxeResults is the trimmed axe-core result returned from the page.
type AxeResults struct {
	Violations   []AxeRule `json:"violations"`
	Passes       []AxeRule `json:"passes"`
	Incomplete   int       `json:"incomplete"`
	Inapplicable int       `json:"inapplicable"`
	Version      string    `json:"version"`
}

type AxeRule struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []AxeNode `json:"nodes"`
}

type AxeNode struct {
	HTML           string   `json:"html"`
	Target         []string `json:"target"`
	Impact         string   `json:"impact"`
	FailureSummary string   `json:"failureSummary"`
}

// axeRunScript runs axe restricted to the given tags. Iframe and shadow DOM
// targets are flattened to a single selector string; passes drop their nodes.
const axeRunScript = `(async () => {
  const r = await axe.run(document, { runOnly: { type: 'tag', values: %s } });
  const flat = t => Array.isArray(t) ? t.join(' >>> ') : String(t);
  const rule = (x, withNodes) => ({
    id: x.id, impact: x.impact || '', description: x.description, help: x.help,
    helpUrl: x.helpUrl, tags: x.tags,
    nodes: withNodes ? x.nodes.map(n => ({
      html: n.html, target: n.target.map(flat), impact: n.impact || '', failureSummary: n.failureSummary || ''
    })) : []
  });
  return {
    violations: r.violations.map(v => rule(v, true)),
    passes: r.passes.map(p => rule(p, false)),
    incomplete: r.incomplete.length,
    inapplicable: r.inapplicable.length,
    version: (r.testEngine && r.testEngine.version) || ''
  };
})()`

var ErrAxeUnavailable = errors.New("axe-core source unavailable")

// AxeEngine injects axe-core into a page and runs it.
type AxeEngine struct {
	tags []string
	path string
	url  string
	web  webclient.WebClient

	mu     sync.Mutex
	loaded bool
	source string
}

// NewAxeEngine loads axe-core from path when set, else downloads it from url
// with web on first use. Only a successful load is kept; a failed one is
// retried by the next Run.
func NewAxeEngine(path, url string, web webclient.WebClient, tags []string) *AxeEngine {
	return &AxeEngine{path: path, url: url, web: web, tags: tags}
}

// NewAxeEngineFromSource uses an in-memory axe-core bundle.
func NewAxeEngineFromSource(source string, tags []string) *AxeEngine {
	return &AxeEngine{tags: tags, source: source, loaded: true}
}

func (e *AxeEngine) load(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return e.source, nil
	}

	var src string
	switch {
	case e.path != "":
		b, err := os.ReadFile(e.path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAxeUnavailable, err)
		}
		src = string(b)
	case e.url != "" && e.web != nil:
		resp, err := e.web.Get(ctx, e.url)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrAxeUnavailable, err)
		}
		if resp.StatusCode != 200 || len(resp.Body) == 0 {
			return "", fmt.Errorf("%w: status %d from %s", ErrAxeUnavailable, resp.StatusCode, e.url)
		}
		src = string(resp.Body)
	default:
		return "", fmt.Errorf("%w: no script path or url configured", ErrAxeUnavailable)
	}

	e.source = src
	e.loaded = true
	return src, nil
}

// Run injects axe into the current page of s and returns its findings.
func (e *AxeEngine) Run(ctx context.Context, s browser.Session) (*AxeResults, error) {
	src, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	var injected bool
	if err := s.Evaluate(ctx, src+"\n;typeof axe !== 'undefined'", &injected); err != nil {
		return nil, fmt.Errorf("inject axe-core: %w", err)
	}
	if !injected {
		return nil, errors.New("inject axe-core: axe global missing after injection")
	}

	tags, err := json.Marshal(e.tags)
	if err != nil {
		return nil, fmt.Errorf("encode axe tags: %w", err)
	}
	var res AxeResults
	if err := s.Evaluate(ctx, fmt.Sprintf(axeRunScript, tags), &res); err != nil {
		return nil, fmt.Errorf("run axe-core: %w", err)
	}
	return &res, nil
}
