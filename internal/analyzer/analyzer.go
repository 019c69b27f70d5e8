// Package analyzer turns a fetched page (URL, HTML, response headers) into the
// inventory of forms, links and cookies that the audit engine injects into.
//
// Extraction is tolerant: a category that cannot be scanned comes back empty
// and never prevents the other categories from being extracted. The only
// error surfaced to callers is an unusable base URL.
package analyzer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/utils"
)

// ErrInvalidBaseURL is returned when the page URL cannot serve as a base for
// resolving links.
var ErrInvalidBaseURL = errors.New("invalid base url")

// Options selects which categories Extract computes. Disabled categories are
// left nil in the resulting PageStructure.
type Options struct {
	Forms   bool `envconfig:"FORMS" default:"true"`
	Links   bool `envconfig:"LINKS" default:"true"`
	Cookies bool `envconfig:"COOKIES" default:"true"`
}

// AllOptions enables every category.
func AllOptions() Options {
	return Options{Forms: true, Links: true, Cookies: true}
}

// Extract builds the PageStructure of one page.
func Extract(baseURL, html string, headers http.Header, opts Options) (*PageStructure, error) {
	ps, _, err := extract(baseURL, html, headers, opts)
	return ps, err
}

// categoryError records a category that degraded to an empty result.
type categoryError struct {
	category string
	err      error
}

func extract(baseURL, html string, headers http.Header, opts Options) (*PageStructure, []categoryError, error) {
	base, err := utils.ParseBaseURL(baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	ps := &PageStructure{URL: baseURL}
	var degraded []categoryError

	if opts.Forms {
		forms, err := extractForms(html)
		if err != nil {
			degraded = append(degraded, categoryError{category: "forms", err: err})
			forms = nil
		}
		ps.Forms = forms
	}

	if opts.Links {
		links, err := extractLinks(base, html)
		if err != nil {
			degraded = append(degraded, categoryError{category: "links", err: err})
			links = nil
		}
		ps.Links = links
	}

	if opts.Cookies {
		ps.Cookies = extractCookies(headers)
	}

	return ps, degraded, nil
}

// Analyzer runs Extract with a fixed set of options and logs what it found.
type Analyzer struct {
	opts   Options
	logger logging.Logger
}

// New creates an Analyzer.
func New(opts Options, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		opts:   opts,
		logger: logger.With(logging.Field{Key: "component", Value: "analyzer"}),
	}
}

// Options returns the categories this Analyzer extracts.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Run extracts the structure of the page at pageURL.
func (a *Analyzer) Run(pageURL, html string, headers http.Header) (*PageStructure, error) {
	ps, degraded, err := extract(pageURL, html, headers, a.opts)
	if err != nil {
		a.logger.Error("cannot analyze page",
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	for _, d := range degraded {
		a.logger.Warn("couldn't extract "+d.category,
			logging.Field{Key: "url", Value: pageURL},
			logging.Field{Key: "error", Value: d.err.Error()})
	}

	fields := []logging.Field{{Key: "url", Value: pageURL}}
	if a.opts.Forms {
		fields = append(fields, logging.Field{Key: "forms", Value: len(ps.Forms)})
	}
	if a.opts.Links {
		fields = append(fields, logging.Field{Key: "links", Value: len(ps.Links)})
	}
	if a.opts.Cookies {
		fields = append(fields, logging.Field{Key: "cookies", Value: len(ps.Cookies)})
	}
	a.logger.Debug("extracted page structure", fields...)

	return ps, nil
}

// PageVars returns the query variables of the page's own URL.
func (ps *PageStructure) PageVars() []QueryVar {
	if ps == nil {
		return nil
	}
	return utils.LinkVars(ps.URL)
}

// recovered converts a panic raised while scanning markup into an error.
func recovered(category string, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("scan %s: %v", category, r)
	}
}
