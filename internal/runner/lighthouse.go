package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/raysh454/sitecheck/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Auditor produces a Lighthouse report for url by attaching to the browser
// listening on port.
type Auditor interface {
	Audit(ctx context.Context, url string, port int, categories []string) (*LighthouseReport, error)
}

// LighthouseReport is the subset of Lighthouse's JSON report we read.
type LighthouseReport struct {
	LighthouseVersion string                        `json:"lighthouseVersion"`
	RequestedURL      string                        `json:"requestedUrl"`
	FinalURL          string                        `json:"finalDisplayedUrl"`
	FetchTime         string                        `json:"fetchTime"`
	RuntimeError      *LighthouseRuntimeError       `json:"runtimeError,omitempty"`
	Categories        map[string]LighthouseCategory `json:"categories"`
	Audits            map[string]LighthouseAudit    `json:"audits"`
}

type LighthouseRuntimeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LighthouseCategory struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Score     *float64             `json:"score"`
	AuditRefs []LighthouseAuditRef `json:"auditRefs"`
}

type LighthouseAuditRef struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
	Group  string  `json:"group,omitempty"`
}

type LighthouseAudit struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Score            *float64 `json:"score"`
	ScoreDisplayMode string   `json:"scoreDisplayMode"`
	NumericValue     *float64 `json:"numericValue,omitempty"`
	NumericUnit      string   `json:"numericUnit,omitempty"`
	DisplayValue     string   `json:"displayValue,omitempty"`
}

// Category returns the named category or nil.
func (r *LighthouseReport) Category(id string) *LighthouseCategory {
	if r == nil {
		return nil
	}
	c, ok := r.Categories[id]
	if !ok {
		return nil
	}
	return &c
}

// ParseLighthouseReport decodes a JSON report and rejects reports that
// carry a runtime error.
func ParseLighthouseReport(data []byte) (*LighthouseReport, error) {
	var rep LighthouseReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode lighthouse report: %w", err)
	}
	if rep.RuntimeError != nil && rep.RuntimeError.Code != "" && rep.RuntimeError.Code != "NO_ERROR" {
		return nil, fmt.Errorf("lighthouse runtime error %s: %s", rep.RuntimeError.Code, rep.RuntimeError.Message)
	}
	return &rep, nil
}

// LighthouseCLI runs the lighthouse command line tool. The process exit is
// the completion signal; ctx bounds it.
type LighthouseCLI struct {
	Path   string
	Args   []string
	logger logging.Logger
}

func NewLighthouseCLI(path string, args []string, logger logging.Logger) *LighthouseCLI {
	if path == "" {
		path = "lighthouse"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LighthouseCLI{Path: path, Args: args, logger: logger.With(logging.Component("lighthouse"))}
}

func (l *LighthouseCLI) commandArgs(url string, port int, categories []string) []string {
	args := []string{
		url,
		"--port=" + strconv.Itoa(port),
		"--output=json",
		"--output-path=stdout",
		"--quiet",
	}
	if len(categories) > 0 {
		args = append(args, "--only-categories="+strings.Join(categories, ","))
	}
	return append(args, l.Args...)
}

func (l *LighthouseCLI) Audit(ctx context.Context, url string, port int, categories []string) (*LighthouseReport, error) {
	if port <= 0 {
		return nil, errors.New("lighthouse needs a browser debugging port")
	}

	cmd := exec.CommandContext(ctx, l.Path, l.commandArgs(url, port, categories)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	l.logger.Debug("starting lighthouse",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "port", Value: port},
		logging.Field{Key: "categories", Value: categories})

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("lighthouse did not finish: %w", ctxErr)
		}
		return nil, fmt.Errorf("lighthouse exited: %w: %s", err, tail(stderr.String(), 512))
	}

	return ParseLighthouseReport(stdout.Bytes())
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
