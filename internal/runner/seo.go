package runner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/model"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// SEORaw is a Lighthouse SEO report plus the on-page basics, when fetched.
type SEORaw struct {
	Report   *LighthouseReport
	PageMeta *model.PageMeta
}

func (*SEORaw) Engine() model.TestType { return model.TestSEO }

type SEORunner struct {
	sessions browser.SessionFactory
	auditor  Auditor
	web      webclient.WebClient
	budget   time.Duration
	logger   logging.Logger
}

// NewSEORunner builds the SEO engine. A nil web client skips the page-meta
// probe.
func NewSEORunner(sessions browser.SessionFactory, auditor Auditor, web webclient.WebClient, budget time.Duration, logger logging.Logger) *SEORunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SEORunner{
		sessions: sessions,
		auditor:  auditor,
		web:      web,
		budget:   budget,
		logger:   logger.With(logging.Component("seo_runner")),
	}
}

func (r *SEORunner) Run(ctx context.Context, url string, _ Params) (RawResult, error) {
	report, err := lighthouseAudit(ctx, r.sessions, r.auditor, r.budget, url, "seo")
	if err != nil {
		return nil, newError(model.TestSEO, "lighthouse audit failed", err)
	}

	raw := &SEORaw{Report: report}
	if r.web != nil {
		meta, err := FetchPageMeta(ctx, r.web, url)
		if err != nil {
			r.logger.Warn("page meta probe failed", logging.Field{Key: "url", Value: url}, logging.Err(err))
		} else {
			raw.PageMeta = meta
		}
	}
	return raw, nil
}

// FetchPageMeta downloads url and reads title, description, canonical link,
// robots directive, document language and the number of h1 headings.
func FetchPageMeta(ctx context.Context, web webclient.WebClient, url string) (*model.PageMeta, error) {
	resp, err := web.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return ParsePageMeta(resp.Body)
}

func ParsePageMeta(body []byte) (*model.PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := &model.PageMeta{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		H1Count: doc.Find("h1").Length(),
	}
	if v, ok := doc.Find(`meta[name=description]`).First().Attr("content"); ok {
		meta.MetaDescription = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name=robots]`).First().Attr("content"); ok {
		meta.Robots = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`link[rel=canonical]`).First().Attr("href"); ok {
		meta.Canonical = strings.TrimSpace(v)
	}
	if v, ok := doc.Find("html").First().Attr("lang"); ok {
		meta.Lang = strings.TrimSpace(v)
	}
	return meta, nil
}
