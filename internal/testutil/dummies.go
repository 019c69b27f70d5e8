// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/webclient"
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

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns body "ok:<url>" with status 200.
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
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
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	return &webclient.Response{
		Request:    req,
		Body:       []byte("ok:" + req.URL),
		StatusCode: 200,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: "GET", URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// Recorded returns a copy of the requests seen so far.
func (d *DummyWebClient) Recorded() []*webclient.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*webclient.Request(nil), d.Requests...)
}

// ─── Requester ─────────────────────────────────────────────────────────

// RequesterCall is one request observed by DummyRequester.
type RequesterCall struct {
	Method  string // "GET", "POST" or "COOKIE"
	URL     string
	Params  map[string]string
	Cookies []analyzer.CookieElement
}

// DummyRequester implements audit.Requester. Respond decides the body of
// every response; when nil the body is empty. Set FailURLs[url] = true to
// make requests to url fail.
type DummyRequester struct {
	Respond  func(call RequesterCall) string
	FailURLs map[string]bool

	mu    sync.Mutex
	Calls []RequesterCall
}

func (d *DummyRequester) Get(ctx context.Context, url string, params map[string]string) (*audit.Response, error) {
	return d.record(ctx, RequesterCall{Method: "GET", URL: url, Params: params})
}

func (d *DummyRequester) Post(ctx context.Context, url string, params map[string]string) (*audit.Response, error) {
	return d.record(ctx, RequesterCall{Method: "POST", URL: url, Params: params})
}

func (d *DummyRequester) RequestWithCookies(ctx context.Context, url string, cookies []analyzer.CookieElement) (*audit.Response, error) {
	return d.record(ctx, RequesterCall{Method: "COOKIE", URL: url, Cookies: cookies})
}

func (d *DummyRequester) record(ctx context.Context, call RequesterCall) (*audit.Response, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, call)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.FailURLs != nil && d.FailURLs[call.URL] {
		return nil, &errString{"dummy request fail for " + call.URL}
	}

	body := ""
	if d.Respond != nil {
		body = d.Respond(call)
	}
	return &audit.Response{StatusCode: 200, Body: []byte(body)}, nil
}

// Recorded returns a copy of the calls seen so far.
func (d *DummyRequester) Recorded() []RequesterCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RequesterCall(nil), d.Calls...)
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
