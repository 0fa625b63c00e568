// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many error-level lines were recorded.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// Responses[url] is returned when present; otherwise body "ok:<url>" with
// status 200. Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Responses     map[string]*webclient.Response

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if req == nil {
		return nil, webclient.ErrNilRequest
	}
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, fmt.Errorf("dummy fetch fail for %s", req.URL)
	}
	if resp, ok := d.Responses[req.URL]; ok {
		cp := *resp
		cp.Request = req
		if cp.Headers == nil {
			cp.Headers = http.Header{}
		}
		cp.FetchedAt = time.Now()
		return &cp, nil
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte("ok:" + req.URL),
		Headers:    http.Header{},
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests reached the client.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// ─── Clock ─────────────────────────────────────────────────────────────

// StepClock returns Start, then advances by Step on every call.
type StepClock struct {
	mu    sync.Mutex
	Start time.Time
	Step  time.Duration
	n     int
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Step == 0 {
		c.Step = time.Second
	}
	t := c.Start.Add(time.Duration(c.n) * c.Step)
	c.n++
	return t
}

// ─── Helpers ───────────────────────────────────────────────────────────

// DecodeInto copies v into out through JSON, the way a browser evaluation
// result reaches Go.
func DecodeInto(out any, v any) error {
	if out == nil {
		return errors.New("nil output")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
