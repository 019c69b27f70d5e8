package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/surfaudit/internal/app"
	"github.com/raysh454/surfaudit/internal/demoserver"
	"github.com/raysh454/surfaudit/internal/server"
	"github.com/raysh454/surfaudit/internal/testutil"
	"github.com/raysh454/surfaudit/internal/webclient"
)

// newTestServer returns an API server plus a demo target for it to scan.
func newTestServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()

	target := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig(), nil).Handler())
	t.Cleanup(target.Close)

	logger := &testutil.DummyLogger{}
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logger, target.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}

	appCfg := app.DefaultConfig()
	appCfg.JobRetentionTime = 5 * time.Second
	cfg := server.Config{
		ListenAddr: ":0",
		AppConfig:  appCfg,
		Logger:     logger,
		WebClient:  wc,
	}

	s, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, target
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func scanBody(t *testing.T, target string) string {
	t.Helper()
	b, err := json.Marshal(server.ScanRequest{Target: target, Payload: "<sa-probe>"})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "OPTIONS", "/scans", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for OPTIONS, got %d", rec.Code)
	}
	if methods := rec.Header().Get("Access-Control-Allow-Methods"); methods != "POST" {
		t.Errorf("expected Allow-Methods POST, got %q", methods)
	}
}

// ─── Scans ─────────────────────────────────────────────────────────────

func TestServer_Scan_ReturnsReport(t *testing.T) {
	t.Parallel()
	s, target := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", scanBody(t, target.URL+"/item?id=1&ref=home"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report app.Report
	decodeJSON(t, rec, &report)
	if len(report.Findings) != 1 || report.Findings[0].Target != "id" {
		t.Fatalf("expected one finding for id, got %+v", report.Findings)
	}
	if report.ScanID == "" {
		t.Error("expected scan_id")
	}
}

func TestServer_Scan_BadRequests(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	cases := map[string]string{
		"invalid json":    `{invalid}`,
		"missing target":  `{"payload":"x"}`,
		"missing payload": `{"target":"http://h/"}`,
		"bad pattern":     `{"target":"http://h/","payload":"x","pattern":"("}`,
	}
	for name, body := range cases {
		rec := doJSON(t, s, "POST", "/scans", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestServer_Scan_UnreachableTarget(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/scans", `{"target":"not a url","payload":"x"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func TestServer_ListJobs_Empty(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var jobs []app.Job
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestServer_GetJob_NotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/jobs/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_CancelJob_NoContent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "DELETE", "/jobs/nonexistent", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestServer_ScanJob_CompletesWithReport(t *testing.T) {
	t.Parallel()
	s, target := newTestServer(t)

	rec := doJSON(t, s, "POST", "/jobs", scanBody(t, target.URL+"/"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var job app.Job
	decodeJSON(t, rec, &job)

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = doJSON(t, s, "GET", "/jobs/"+job.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		decodeJSON(t, rec, &job)
		if job.Status == app.JobDone || job.Status == app.JobFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s after deadline", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if job.Status != app.JobDone {
		t.Fatalf("expected done, got %s (%s)", job.Status, job.Error)
	}
	if job.Report == nil || len(job.Report.Findings) != 1 || job.Report.Findings[0].Target != "q" {
		t.Fatalf("expected the search input finding, got %+v", job.Report)
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_ScanWS_StreamsEventsAndReport(t *testing.T) {
	t.Parallel()
	s, target := newTestServer(t)

	api := httptest.NewServer(s)
	defer api.Close()

	q := url.Values{
		"target":  {target.URL + "/account"},
		"payload": {"42"},
		"pattern": {`id=(\d+)`},
		"expect":  {"42"},
	}
	wsURL := "ws" + strings.TrimPrefix(api.URL, "http") + "/ws/scan?" + q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}

	var last app.JobEvent
	for last.Status != app.JobDone && last.Status != app.JobFailed && last.Status != app.JobCanceled {
		if err := conn.ReadJSON(&last); err != nil {
			t.Fatalf("read event: %v", err)
		}
	}
	if last.Status != app.JobDone || last.Findings != 1 {
		t.Fatalf("expected done with 1 finding, got %+v", last)
	}

	var report app.Report
	if err := conn.ReadJSON(&report); err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Target != "account" {
		t.Fatalf("unexpected report: %+v", report.Findings)
	}
}

func TestServer_ScanWS_BadRequest(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/ws/scan?payload=x", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
