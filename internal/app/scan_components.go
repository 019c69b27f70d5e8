package app

import (
	"fmt"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/webclient"
)

// ScanComponents are the per-target collaborators of one scan.
type ScanComponents struct {
	Analyzer *analyzer.Analyzer
	Session  *webclient.Session
}

// NewScanComponents builds the analyzer and request session for target on
// top of a shared webclient.
func NewScanComponents(wc webclient.WebClient, target string, opts analyzer.Options, logger logging.Logger) (*ScanComponents, error) {
	sess, err := webclient.NewSession(wc, target, logger)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &ScanComponents{
		Analyzer: analyzer.New(opts, logger),
		Session:  sess,
	}, nil
}

// Auditor returns an audit engine bound to structure and this session.
func (c *ScanComponents) Auditor(structure *analyzer.PageStructure, logger logging.Logger) (*audit.Auditor, error) {
	return audit.New(structure, c.Session, logger)
}
