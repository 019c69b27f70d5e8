package server

import (
	"errors"
	"regexp"

	"github.com/raysh454/surfaudit/internal/app"
	"github.com/raysh454/surfaudit/internal/audit"
)

// ScanRequest is the payload accepted by the scan endpoints.
type ScanRequest struct {
	Target  string  `json:"target" example:"http://localhost:9999/item?id=1"`
	Payload string  `json:"payload" example:"<surfaudit>"`
	Pattern string  `json:"pattern,omitempty" example:"id=(\\d+)"`
	Expect  *string `json:"expect,omitempty" example:"42"`

	// Category toggles; omitted means "use server default".
	Forms   *bool `json:"forms,omitempty"`
	Links   *bool `json:"links,omitempty"`
	Cookies *bool `json:"cookies,omitempty"`
}

// toScan validates the payload and fills defaults from cfg.
func (r ScanRequest) toScan(cfg *app.Config) (app.ScanRequest, error) {
	if r.Target == "" {
		return app.ScanRequest{}, errors.New("target is required")
	}
	if r.Payload == "" {
		return app.ScanRequest{}, errors.New("payload is required")
	}
	pattern := r.Pattern
	if pattern == "" {
		pattern = regexp.QuoteMeta(r.Payload)
	}
	probe, err := audit.NewProbe(r.Payload, pattern)
	if err != nil {
		return app.ScanRequest{}, err
	}
	if r.Expect != nil {
		probe = probe.Expect(*r.Expect)
	}

	opts := cfg.Extract
	if r.Forms != nil {
		opts.Forms = *r.Forms
	}
	if r.Links != nil {
		opts.Links = *r.Links
	}
	if r.Cookies != nil {
		opts.Cookies = *r.Cookies
	}
	return app.ScanRequest{Target: r.Target, Probe: probe, Options: opts}, nil
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
