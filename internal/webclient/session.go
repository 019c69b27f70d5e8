package webclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/utils"
)

var _ audit.Requester = (*Session)(nil)

// Session adapts a WebClient to audit.Requester. Relative URLs are resolved
// against the base the session was opened for.
type Session struct {
	client WebClient
	base   *url.URL
	logger logging.Logger
}

func NewSession(client WebClient, baseURL string, logger logging.Logger) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("session: nil webclient")
	}
	base, err := utils.ParseBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("session base url: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		client: client,
		base:   base,
		logger: logger.With(logging.Field{Key: "component", Value: "session"}),
	}, nil
}

// Get sends params as the query string of target, replacing any query it had.
func (s *Session) Get(ctx context.Context, target string, params map[string]string) (*audit.Response, error) {
	u, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	u.RawQuery = encode(params)
	return s.send(ctx, &Request{Method: http.MethodGet, URL: u.String()})
}

// Post submits params as an application/x-www-form-urlencoded body.
func (s *Session) Post(ctx context.Context, target string, params map[string]string) (*audit.Response, error) {
	u, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.send(ctx, &Request{
		Method:  http.MethodPost,
		URL:     u.String(),
		Headers: h,
		Body:    []byte(encode(params)),
	})
}

// RequestWithCookies GETs target with a Cookie header holding only cookies.
// Values are sent as given, without quoting or escaping.
func (s *Session) RequestWithCookies(ctx context.Context, target string, cookies []analyzer.CookieElement) (*audit.Response, error) {
	u, err := s.resolve(target)
	if err != nil {
		return nil, err
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	h := http.Header{}
	if len(pairs) > 0 {
		h.Set("Cookie", strings.Join(pairs, "; "))
	}
	return s.send(ctx, &Request{Method: http.MethodGet, URL: u.String(), Headers: h})
}

func (s *Session) resolve(target string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, fmt.Errorf("parse target %q: %w", target, err)
	}
	u := s.base.ResolveReference(ref)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u, nil
}

func (s *Session) send(ctx context.Context, req *Request) (*audit.Response, error) {
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("session response",
		logging.Field{Key: "method", Value: req.Method},
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "status", Value: resp.StatusCode})
	return &audit.Response{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func encode(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return v.Encode()
}
