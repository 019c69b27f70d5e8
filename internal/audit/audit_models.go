package audit

import (
	"context"
	"fmt"
	"regexp"

	"github.com/raysh454/surfaudit/internal/analyzer"
)

// Requester is the HTTP capability the engine needs. Implementations own
// connection handling, sessions, retries and timeouts; a failed request is
// reported as an error and counts as a non-match.
type Requester interface {
	// Get requests url with params as its query string.
	Get(ctx context.Context, url string, params map[string]string) (*Response, error)

	// Post submits params as a form body to url.
	Post(ctx context.Context, url string, params map[string]string) (*Response, error)

	// RequestWithCookies requests url sending exactly the given cookies.
	RequestWithCookies(ctx context.Context, url string, cookies []analyzer.CookieElement) (*Response, error)
}

// Response is the part of an HTTP response the engine inspects.
type Response struct {
	StatusCode int
	Body       []byte
}

// Kind identifies where a payload was injected.
type Kind string

const (
	KindLink   Kind = "link"
	KindForm   Kind = "form"
	KindCookie Kind = "cookie"
)

// Finding records a target whose response matched the probe.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Target  string `json:"target"`
	Locator string `json:"locator"`
	Payload string `json:"payload"`
}

// Probe is a payload plus the rule deciding whether a response reacted to it.
type Probe struct {
	Payload string
	Pattern *regexp.Regexp

	// Expected, when set, must equal the first value captured by Pattern.
	Expected *string
}

// NewProbe compiles pattern and returns a Probe without an expected value.
func NewProbe(payload, pattern string) (Probe, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Probe{}, fmt.Errorf("compile detection pattern: %w", err)
	}
	return Probe{Payload: payload, Pattern: re}, nil
}

// Expect returns a copy of p that requires the captured value to equal v.
func (p Probe) Expect(v string) Probe {
	p.Expected = &v
	return p
}

// Matches reports whether body is a positive response.
//
// The captured value of a match is its first submatch when the pattern has
// groups, otherwise the whole match. With Expected set, only the first match
// is considered and its captured value must equal Expected exactly. Without
// it, any match with a non-empty captured value is positive.
func (p Probe) Matches(body []byte) bool {
	if p.Pattern == nil {
		return false
	}

	if p.Expected != nil {
		m := p.Pattern.FindSubmatch(body)
		if m == nil {
			return false
		}
		return string(captured(m)) == *p.Expected
	}

	for _, m := range p.Pattern.FindAllSubmatch(body, -1) {
		if len(captured(m)) > 0 {
			return true
		}
	}
	return false
}

func captured(m [][]byte) []byte {
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}
