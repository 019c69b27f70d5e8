package audit_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/testutil"
)

func mustProbe(t *testing.T, payload, pattern string) audit.Probe {
	t.Helper()
	p, err := audit.NewProbe(payload, pattern)
	require.NoError(t, err)
	return p
}

func newAuditor(t *testing.T, ps *analyzer.PageStructure, req audit.Requester) *audit.Auditor {
	t.Helper()
	a, err := audit.New(ps, req, &testutil.DummyLogger{})
	require.NoError(t, err)
	return a
}

// echoParams reflects every submitted value back in the body.
func echoParams(call testutil.RequesterCall) string {
	var b strings.Builder
	for _, v := range call.Params {
		b.WriteString(v)
	}
	for _, c := range call.Cookies {
		b.WriteString(c.Value)
	}
	return b.String()
}

// ─── Construction ──────────────────────────────────────────────────────

func TestNew_RejectsNilCollaborators(t *testing.T) {
	_, err := audit.New(nil, &testutil.DummyRequester{}, nil)
	assert.ErrorIs(t, err, audit.ErrNilStructure)

	_, err = audit.New(&analyzer.PageStructure{URL: "http://h/"}, nil, nil)
	assert.ErrorIs(t, err, audit.ErrNilRequester)
}

// ─── Forms ─────────────────────────────────────────────────────────────

func TestAuditForms_SingleInputReflected(t *testing.T) {
	ps, err := analyzer.Extract("http://h/p/",
		`<form action="/search"><input name="q"></form>`, nil, analyzer.Options{Forms: true})
	require.NoError(t, err)

	req := &testutil.DummyRequester{Respond: echoParams}
	findings := newAuditor(t, ps, req).AuditForms(context.Background(), mustProbe(t, "XSS", "(XSS)"))

	calls := req.Recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "POST", calls[0].Method)
	assert.Equal(t, "/search", calls[0].URL)
	assert.Equal(t, map[string]string{"q": "XSS"}, calls[0].Params)

	require.Len(t, findings, 1)
	assert.Equal(t, audit.Finding{Kind: audit.KindForm, Target: "q", Locator: "/search", Payload: "XSS"}, findings[0])
}

func TestAuditForms_NoFindingWhenNotReflected(t *testing.T) {
	ps, _ := analyzer.Extract("http://h/p/",
		`<form action="/search"><input name="q"></form>`, nil, analyzer.Options{Forms: true})

	req := &testutil.DummyRequester{Respond: func(testutil.RequesterCall) string { return "nothing here" }}
	findings := newAuditor(t, ps, req).AuditForms(context.Background(), mustProbe(t, "XSS", "(XSS)"))

	assert.Len(t, req.Recorded(), 1)
	assert.Empty(t, findings)
}

func TestAuditForms_SkipsNamelessAndKeepsOrder(t *testing.T) {
	page := `<form>
		<input type="submit" value="go">
		<input name="a">
		<textarea name="b"></textarea>
		<select name="c"><option value="1"></select>
	</form>`
	ps, _ := analyzer.Extract("http://h/p/", page, nil, analyzer.Options{Forms: true})

	req := &testutil.DummyRequester{Respond: echoParams}
	findings := newAuditor(t, ps, req).AuditForms(context.Background(), mustProbe(t, "XSS", "XSS"))

	calls := req.Recorded()
	require.Len(t, calls, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, map[string]string{name: "XSS"}, calls[i].Params)
		assert.Equal(t, "http://h/p/", calls[i].URL, "form without action posts to the page")
	}

	require.Len(t, findings, 3)
	for _, f := range findings {
		assert.NotEmpty(t, f.Target)
	}
}

func TestAuditForms_DoesNotMutateStructure(t *testing.T) {
	ps, _ := analyzer.Extract("http://h/", `<form><input name="a" value="orig"></form>`, nil, analyzer.Options{Forms: true})
	req := &testutil.DummyRequester{}
	newAuditor(t, ps, req).AuditForms(context.Background(), mustProbe(t, "XSS", "XSS"))

	assert.Equal(t, "orig", ps.Forms[0].Auditable[0].Value())
	assert.Equal(t, "orig", ps.Forms[0].Inputs[0]["value"])
}

// ─── Links ─────────────────────────────────────────────────────────────

func TestAuditLinks_OneRequestPerPageVar(t *testing.T) {
	page := `<a href="/other?unrelated=1">other</a>`
	ps, _ := analyzer.Extract("http://h/item?id=7&sort=asc", page, nil, analyzer.AllOptions())

	req := &testutil.DummyRequester{Respond: func(call testutil.RequesterCall) string {
		if call.Params["id"] != "" {
			return "error near '" + call.Params["id"] + "'"
		}
		return "fine"
	}}
	findings := newAuditor(t, ps, req).AuditLinks(context.Background(), mustProbe(t, "'", `near '(')`))

	calls := req.Recorded()
	require.Len(t, calls, 2, "only the page's own vars are audited")
	assert.Equal(t, "GET", calls[0].Method)
	assert.Equal(t, "http://h/item", calls[0].URL)
	assert.Equal(t, map[string]string{"id": "'"}, calls[0].Params)
	assert.Equal(t, map[string]string{"sort": "'"}, calls[1].Params)

	require.Len(t, findings, 1)
	assert.Equal(t, audit.Finding{Kind: audit.KindLink, Target: "id", Locator: "http://h/item?id=7&sort=asc", Payload: "'"}, findings[0])
}

func TestAuditLinks_NoVarsNoRequests(t *testing.T) {
	ps, _ := analyzer.Extract("http://h/plain", "", nil, analyzer.AllOptions())
	req := &testutil.DummyRequester{}
	findings := newAuditor(t, ps, req).AuditLinks(context.Background(), mustProbe(t, "x", "x"))

	assert.Empty(t, req.Recorded())
	assert.Empty(t, findings)
}

// ─── Cookies ───────────────────────────────────────────────────────────

func TestAuditCookies_ExpectedValueMustMatchExactly(t *testing.T) {
	ps := &analyzer.PageStructure{
		URL:     "http://h/account",
		Cookies: []analyzer.CookieElement{{Name: "session", Value: "abc", Path: "/"}},
	}
	probe := mustProbe(t, "' OR 1=1", `id=(\d+)`)

	tests := []struct {
		name     string
		body     string
		expected string
		want     int
	}{
		{"captured equals expected", "user id=42", "42", 1},
		{"captured differs", "user id=7", "42", 0},
		{"captured is a superstring", "user id=421", "42", 0},
		{"nothing captured", "no user", "42", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := &testutil.DummyRequester{Respond: func(testutil.RequesterCall) string { return tc.body }}
			findings := newAuditor(t, ps, req).AuditCookies(context.Background(), probe.Expect(tc.expected))

			calls := req.Recorded()
			require.Len(t, calls, 1)
			assert.Equal(t, "COOKIE", calls[0].Method)
			assert.Equal(t, "http://h/account", calls[0].URL)
			require.Len(t, calls[0].Cookies, 1)
			assert.Equal(t, "session", calls[0].Cookies[0].Name)
			assert.Equal(t, "' OR 1=1", calls[0].Cookies[0].Value)
			assert.Equal(t, "/", calls[0].Cookies[0].Path)

			assert.Len(t, findings, tc.want)
			if tc.want == 1 {
				assert.Equal(t, audit.Finding{Kind: audit.KindCookie, Target: "session", Locator: "http://h/account", Payload: "' OR 1=1"}, findings[0])
			}
		})
	}
	assert.Equal(t, "abc", ps.Cookies[0].Value, "structure must not change")
}

func TestAuditCookies_EachCookieSentAlone(t *testing.T) {
	ps := &analyzer.PageStructure{
		URL:     "http://h/",
		Cookies: []analyzer.CookieElement{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}},
	}
	req := &testutil.DummyRequester{Respond: echoParams}
	findings := newAuditor(t, ps, req).AuditCookies(context.Background(), mustProbe(t, "PWN", "PWN"))

	calls := req.Recorded()
	require.Len(t, calls, 2)
	assert.Len(t, calls[0].Cookies, 1)
	assert.Equal(t, "a", calls[0].Cookies[0].Name)
	assert.Len(t, calls[1].Cookies, 1)
	assert.Equal(t, "b", calls[1].Cookies[0].Name)
	assert.Len(t, findings, 2)
}

// ─── Failure handling ──────────────────────────────────────────────────

func TestAudit_TransportFailureIsNoMatch(t *testing.T) {
	page := `<form action="/down"><input name="a"></form><form action="/up"><input name="b"></form>`
	ps, _ := analyzer.Extract("http://h/", page, nil, analyzer.Options{Forms: true})

	logger := &testutil.DummyLogger{}
	req := &testutil.DummyRequester{Respond: echoParams, FailURLs: map[string]bool{"/down": true}}
	a, err := audit.New(ps, req, logger)
	require.NoError(t, err)

	findings := a.AuditForms(context.Background(), mustProbe(t, "XSS", "XSS"))

	assert.Len(t, req.Recorded(), 2, "audit continues after a failed request")
	require.Len(t, findings, 1)
	assert.Equal(t, "b", findings[0].Target)
	assert.Len(t, logger.Warns, 1)
}

func TestAudit_CancelledContextStopsEarly(t *testing.T) {
	page := `<form><input name="a"><input name="b"></form>`
	ps, _ := analyzer.Extract("http://h/?x=1", page, nil, analyzer.AllOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &testutil.DummyRequester{Respond: echoParams}
	findings := newAuditor(t, ps, req).AuditAll(ctx, mustProbe(t, "XSS", "XSS"), analyzer.AllOptions())

	assert.Empty(t, req.Recorded())
	assert.Empty(t, findings)
}

// ─── AuditAll & idempotence ────────────────────────────────────────────

func TestAuditAll_IsIdempotent(t *testing.T) {
	page := `<form action="/f"><input name="q"><textarea name="t"></textarea></form>`
	headers := map[string][]string{"Set-Cookie": {"sid=1"}}
	ps, _ := analyzer.Extract("http://h/p?v=1", page, headers, analyzer.AllOptions())

	req := &testutil.DummyRequester{Respond: echoParams}
	a := newAuditor(t, ps, req)
	probe := mustProbe(t, "XSS", "(XSS)")

	first := a.AuditAll(context.Background(), probe, analyzer.AllOptions())
	firstCalls := req.Recorded()
	second := a.AuditAll(context.Background(), probe, analyzer.AllOptions())

	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
	assert.Equal(t, firstCalls, req.Recorded()[len(firstCalls):])

	kinds := []audit.Kind{audit.KindLink, audit.KindForm, audit.KindForm, audit.KindCookie}
	for i, f := range first {
		assert.Equal(t, kinds[i], f.Kind)
	}
}

// ─── Probe ─────────────────────────────────────────────────────────────

func TestProbe_Matches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		expect  *string
		body    string
		want    bool
	}{
		{"literal present", "XSS", nil, "<b>XSS</b>", true},
		{"literal absent", "XSS", nil, "<b>safe</b>", false},
		{"empty group then non-empty", `id=(\d*)`, nil, "id= id=5", true},
		{"only empty captures", `id=(\d*)`, nil, "id= id=", false},
		{"expected uses first match only", `id=(\d+)`, strPtr("5"), "id=4 id=5", false},
		{"expected without groups uses whole match", `\d+`, strPtr("42"), "n=42", true},
		{"expected empty capture", `id=(\d*)`, strPtr(""), "id=", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := audit.Probe{Payload: "x", Pattern: regexp.MustCompile(tc.pattern), Expected: tc.expect}
			assert.Equal(t, tc.want, p.Matches([]byte(tc.body)))
		})
	}
}

func TestProbe_NilPatternNeverMatches(t *testing.T) {
	assert.False(t, audit.Probe{Payload: "x"}.Matches([]byte("x")))
}

func TestNewProbe_BadPattern(t *testing.T) {
	_, err := audit.NewProbe("x", "(")
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
