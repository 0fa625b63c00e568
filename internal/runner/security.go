package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/utils"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// ObservatoryScan is the HTTP Observatory v2 scan response.
type ObservatoryScan struct {
	ID               int64    `json:"id"`
	DetailsURL       string   `json:"details_url"`
	AlgorithmVersion int      `json:"algorithm_version"`
	ScannedAt        string   `json:"scanned_at"`
	Error            *string  `json:"error"`
	Message          string   `json:"message,omitempty"`
	Grade            string   `json:"grade"`
	Score            *float64 `json:"score"`
	StatusCode       int      `json:"status_code"`
	TestsFailed      int      `json:"tests_failed"`
	TestsPassed      int      `json:"tests_passed"`
	TestsQuantity    int      `json:"tests_quantity"`
}

type SecurityRaw struct {
	Host     string
	ScanType string
	Scan     *ObservatoryScan
}

func (*SecurityRaw) Engine() model.TestType { return model.TestSecurity }

// SecurityRunner asks the HTTP Observatory to scan the URL's host. The API
// answers synchronously, so the budget is the only completion bound.
type SecurityRunner struct {
	web      webclient.WebClient
	endpoint string
	budget   time.Duration
	logger   logging.Logger
}

func NewSecurityRunner(web webclient.WebClient, endpoint string, budget time.Duration, logger logging.Logger) *SecurityRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SecurityRunner{web: web, endpoint: endpoint, budget: budget, logger: logger.With(logging.Component("security_runner"))}
}

func (r *SecurityRunner) Run(ctx context.Context, rawURL string, params Params) (RawResult, error) {
	host, err := utils.ASCIIHostname(rawURL)
	if err != nil {
		return nil, newError(model.TestSecurity, "cannot derive host", err)
	}
	scanType := params.String(ParamScanType, "baseline")

	ctx, cancel := withBudget(ctx, r.budget)
	defer cancel()

	endpoint, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, newError(model.TestSecurity, "bad observatory endpoint", err)
	}
	q := endpoint.Query()
	q.Set("host", host)
	endpoint.RawQuery = q.Encode()

	r.logger.Debug("requesting observatory scan", logging.Field{Key: "host", Value: host})
	resp, err := r.web.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     endpoint.String(),
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(model.TestSecurity, "scan did not complete in time", err)
		}
		return nil, newError(model.TestSecurity, "observatory request failed", err)
	}

	var scan ObservatoryScan
	decodeErr := json.Unmarshal(resp.Body, &scan)

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("observatory returned status %d", resp.StatusCode)
		if decodeErr == nil && scan.Error != nil {
			msg = fmt.Sprintf("%s: %s %s", msg, *scan.Error, scan.Message)
		}
		return nil, newError(model.TestSecurity, msg, nil)
	}
	if decodeErr != nil {
		return nil, newError(model.TestSecurity, "malformed observatory response", decodeErr)
	}
	if scan.Error != nil && *scan.Error != "" {
		return nil, newError(model.TestSecurity, "scan failed", errors.New(*scan.Error))
	}
	if scan.Score == nil && scan.Grade == "" {
		return nil, newError(model.TestSecurity, "observatory response has neither score nor grade", nil)
	}

	return &SecurityRaw{Host: host, ScanType: scanType, Scan: &scan}, nil
}
