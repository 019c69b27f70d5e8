// Package audit replays requests against the surface of a page with a
// payload injected into one target at a time and keeps the targets whose
// response matches a Probe.
package audit

import (
	"context"
	"errors"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/utils"
)

var (
	ErrNilStructure = errors.New("audit: nil page structure")
	ErrNilRequester = errors.New("audit: nil requester")
)

// Auditor audits one page. It holds no state between calls: every Audit*
// method issues one request per target, in document order, and waits for
// each response before moving on.
type Auditor struct {
	pageURL   string
	structure *analyzer.PageStructure
	requester Requester
	logger    logging.Logger
}

// New creates an Auditor for the page described by structure.
func New(structure *analyzer.PageStructure, requester Requester, logger logging.Logger) (*Auditor, error) {
	if structure == nil {
		return nil, ErrNilStructure
	}
	if requester == nil {
		return nil, ErrNilRequester
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Auditor{
		pageURL:   structure.URL,
		structure: structure,
		requester: requester,
		logger: logger.With(
			logging.Field{Key: "component", Value: "audit"},
			logging.Field{Key: "page", Value: structure.URL}),
	}, nil
}

// AuditLinks injects the payload into each query variable of the page's own
// URL. Each request is a GET to the page URL carrying only the targeted
// variable.
func (a *Auditor) AuditLinks(ctx context.Context, p Probe) []Finding {
	var findings []Finding
	endpoint := utils.StripQuery(a.pageURL)

	for _, v := range a.structure.PageVars() {
		if a.cancelled(ctx) {
			break
		}
		params := map[string]string{v.Name: p.Payload}
		f, ok := a.check(KindLink, v.Name, a.pageURL, p, func() (*Response, error) {
			return a.requester.Get(ctx, endpoint, params)
		})
		if ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// AuditForms injects the payload into every named auditable element of every
// form, posting only that element to the form's action.
func (a *Auditor) AuditForms(ctx context.Context, p Probe) []Finding {
	var findings []Finding

	for _, form := range a.structure.Forms {
		action := form.Action(a.pageURL)
		for _, el := range form.Auditable {
			if a.cancelled(ctx) {
				return findings
			}
			injected := el.WithValue(p.Payload)
			name := injected.Name()
			if name == "" {
				continue
			}
			params := map[string]string{name: injected.Value()}
			f, ok := a.check(KindForm, name, action, p, func() (*Response, error) {
				return a.requester.Post(ctx, action, params)
			})
			if ok {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

// AuditCookies sends each cookie alone, with its value replaced by the
// payload, to the page URL.
func (a *Auditor) AuditCookies(ctx context.Context, p Probe) []Finding {
	var findings []Finding

	for _, cookie := range a.structure.Cookies {
		if a.cancelled(ctx) {
			break
		}
		jar := []analyzer.CookieElement{cookie.WithValue(p.Payload)}
		f, ok := a.check(KindCookie, cookie.Name, a.pageURL, p, func() (*Response, error) {
			return a.requester.RequestWithCookies(ctx, a.pageURL, jar)
		})
		if ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// AuditAll runs the categories enabled in opts in the order links, forms,
// cookies and concatenates their findings.
func (a *Auditor) AuditAll(ctx context.Context, p Probe, opts analyzer.Options) []Finding {
	var findings []Finding
	if opts.Links {
		findings = append(findings, a.AuditLinks(ctx, p)...)
	}
	if opts.Forms {
		findings = append(findings, a.AuditForms(ctx, p)...)
	}
	if opts.Cookies {
		findings = append(findings, a.AuditCookies(ctx, p)...)
	}
	return findings
}

// check performs one request and classifies its response.
func (a *Auditor) check(kind Kind, target, locator string, p Probe, send func() (*Response, error)) (Finding, bool) {
	a.logger.Info("auditing target",
		logging.Field{Key: "kind", Value: string(kind)},
		logging.Field{Key: "target", Value: target},
		logging.Field{Key: "locator", Value: locator})

	resp, err := send()
	if err != nil {
		a.logger.Warn("request failed, treating as no match",
			logging.Field{Key: "kind", Value: string(kind)},
			logging.Field{Key: "target", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
		return Finding{}, false
	}
	if resp == nil || !p.Matches(resp.Body) {
		return Finding{}, false
	}

	a.logger.Info("positive result",
		logging.Field{Key: "kind", Value: string(kind)},
		logging.Field{Key: "target", Value: target},
		logging.Field{Key: "locator", Value: locator})

	return Finding{Kind: kind, Target: target, Locator: locator, Payload: p.Payload}, true
}

func (a *Auditor) cancelled(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		a.logger.Warn("audit cancelled", logging.Field{Key: "error", Value: err.Error()})
		return true
	}
	return false
}
