// Package demoserver serves a small shop whose pages reflect user input
// back into the response, as a target for the audit engine.
package demoserver

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/surfaudit/internal/logging"
)

// DemoServer is a deliberately reflective HTTP target.
type DemoServer struct {
	cfg      Config
	pages    map[string]PageDefinition
	hardened atomic.Bool
	logger   logging.Logger
	router   chi.Router
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	pageMap := make(map[string]PageDefinition)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
	}

	s := &DemoServer{
		cfg:    cfg,
		pages:  pageMap,
		logger: logger.With(logging.Field{Key: "component", Value: "demoserver"}),
	}
	s.hardened.Store(cfg.Hardened)
	s.router = s.routes()
	return s
}

func (s *DemoServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	for path := range s.pages {
		r.Get(path, s.pageHandler(path))
	}

	r.Post("/search", s.searchHandler)
	r.Get("/item", s.itemHandler)
	r.Get("/account", s.accountHandler)
	r.Post("/contact", s.contactHandler)

	// Control endpoints for switching reflection escaping
	r.Get("/demo/mode", s.getModeHandler)
	r.Post("/demo/mode", s.setModeHandler)

	r.Get("/static/*", s.staticHandler)
	return r
}

// Handler returns the server's routes, for httptest or embedding.
func (s *DemoServer) Handler() http.Handler {
	return s.router
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("demo server starting", logging.Field{Key: "addr", Value: addr})
	return http.ListenAndServe(addr, s.router)
}

func (s *DemoServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("demo request",
			logging.Field{Key: "method", Value: r.Method},
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "query", Value: r.URL.RawQuery})
		next.ServeHTTP(w, r)
	})
}

// reflect returns v as it will be written into a page.
func (s *DemoServer) reflect(v string) string {
	if s.hardened.Load() {
		return html.EscapeString(v)
	}
	return v
}

// pageHandler returns a handler for a specific page path.
func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageDef, ok := s.pages[path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		for _, c := range pageDef.Cookies {
			http.SetCookie(w, c.httpCookie())
		}

		writeHTML(w, pageDef.HTML)
	}
}

// searchHandler echoes the search term.
func (s *DemoServer) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.FormValue("q")
	writeHTML(w, fmt.Sprintf(`<html><body><h1>Search</h1><p>Results for: %s</p></body></html>`, s.reflect(q)))
}

// itemHandler reflects id. The ref parameter is accepted and ignored.
func (s *DemoServer) itemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	writeHTML(w, fmt.Sprintf(`<html><body><h1>Item %s</h1><a href="/item?id=%s&ref=item">Permalink</a></body></html>`,
		s.reflect(id), s.reflect(id)))
}

// accountHandler looks up the account named by the account cookie and
// hands out one to visitors without it.
func (s *DemoServer) accountHandler(w http.ResponseWriter, r *http.Request) {
	account := s.cfg.AccountID
	if c, err := r.Cookie("account"); err == nil {
		account = c.Value
	} else {
		http.SetCookie(w, &http.Cookie{Name: "account", Value: s.cfg.AccountID, Path: "/", HttpOnly: true})
	}
	writeHTML(w, fmt.Sprintf(`<html><body><h1>Account</h1><p>id=%s</p></body></html>`, s.reflect(account)))
}

func (s *DemoServer) contactHandler(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	writeHTML(w, fmt.Sprintf(`<html><body><p>Thanks %s, we will be in touch.</p></body></html>`, s.reflect(name)))
}

func (s *DemoServer) getModeHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"hardened": s.hardened.Load()})
}

// setModeHandler toggles escaping from the form value "hardened".
func (s *DemoServer) setModeHandler(w http.ResponseWriter, r *http.Request) {
	v := r.FormValue("hardened")
	s.hardened.Store(v == "1" || v == "true")
	s.logger.Info("demo mode changed", logging.Field{Key: "hardened", Value: s.hardened.Load()})
	writeJSON(w, map[string]any{"success": true, "hardened": s.hardened.Load()})
}

// staticHandler serves placeholder static files.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte("demo static file: " + r.URL.Path))
}

func (c CookieDef) httpCookie() *http.Cookie {
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
	}
	switch c.SameSite {
	case "Strict":
		cookie.SameSite = http.SameSiteStrictMode
	case "Lax":
		cookie.SameSite = http.SameSiteLaxMode
	case "None":
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
