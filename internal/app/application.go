package app

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/cli"
	"github.com/raysh454/surfaudit/internal/logging"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the core services that are shared
// across modules (orchestrator, logger). Pass Application into modules that
// need access to the global state rather than using package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger logging.Logger
	Orch   *Orchestrator
}

// NewApplication constructs an Application from the provided parts.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, orch *Orchestrator) *Application {
	return &Application{
		Config: cfg,
		Args:   args,
		Logger: logger,
		Orch:   orch,
	}
}

// ScanRequest turns the parsed arguments into a scan. Category flags left
// unset on the command line fall back to the configured extract options.
func (a *Application) ScanRequest() (ScanRequest, error) {
	if a == nil || a.Args == nil {
		return ScanRequest{}, errors.New("application has no arguments")
	}
	probe, err := audit.NewProbe(a.Args.Payload, a.Args.Pattern)
	if err != nil {
		return ScanRequest{}, err
	}
	if a.Args.Expect != nil {
		probe = probe.Expect(*a.Args.Expect)
	}

	opts := DefaultConfig().Extract
	if a.Config != nil {
		opts = a.Config.Extract
	}
	if a.Args.Forms != nil {
		opts.Forms = *a.Args.Forms
	}
	if a.Args.Links != nil {
		opts.Links = *a.Args.Links
	}
	if a.Args.Cookies != nil {
		opts.Cookies = *a.Args.Cookies
	}

	return ScanRequest{Target: a.Args.Target, Probe: probe, Options: opts}, nil
}

// Run performs the scan described by the arguments.
func (a *Application) Run(ctx context.Context) (*Report, error) {
	if a == nil || a.Orch == nil {
		return nil, errors.New("application is not wired")
	}
	req, err := a.ScanRequest()
	if err != nil {
		return nil, err
	}
	if a.Logger != nil {
		a.Logger.Info("application starting", logging.Field{Key: "target", Value: req.Target})
	}
	return a.Orch.Scan(ctx, req)
}

// Shutdown attempts a graceful shutdown, delegating to the orchestrator first.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.Logger != nil {
		a.Logger.Info("application shutdown initiated")
	}
	if a.Orch == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Orch.Close() }()

	select {
	case err := <-done:
		if err != nil && a.Logger != nil {
			a.Logger.Info("orchestrator shutdown returned error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
