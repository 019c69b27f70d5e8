package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/raysh454/surfaudit/internal/analyzer"
	"github.com/raysh454/surfaudit/internal/audit"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/webclient"
)

var ErrOrchestratorClosed = errors.New("orchestrator is closed")

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// Set on result events.
	Findings int `json:"findings,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID        string        `json:"id"`
	Target    string        `json:"target"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Report *Report `json:"report,omitempty"`
}

// ScanRequest describes a single-page scan.
type ScanRequest struct {
	Target  string
	Probe   audit.Probe
	Options analyzer.Options
}

// Report is the outcome of one scan. Findings are ordered links, forms,
// cookies regardless of which category finished first.
type Report struct {
	ScanID     string          `json:"scan_id"`
	Target     string          `json:"target"`
	Payload    string          `json:"payload"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Forms      int             `json:"forms"`
	Links      int             `json:"links"`
	Cookies    int             `json:"cookies"`
	Findings   []audit.Finding `json:"findings"`
}

// Orchestrator runs scans against one shared webclient and keeps track of
// the ones started as background jobs.
type Orchestrator struct {
	cfg    *Config
	wc     webclient.WebClient
	ownWC  bool
	logger logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

// NewOrchestrator ties together config, webclient and logger. When wc is nil
// one is built from cfg.WebClient and closed by Close.
func NewOrchestrator(cfg *Config, wc webclient.WebClient, logger logging.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	own := false
	if wc == nil {
		var err error
		wc, err = webclient.NewWebClient(cfg.WebClient, logger)
		if err != nil {
			return nil, fmt.Errorf("new webclient: %w", err)
		}
		own = true
	}
	return &Orchestrator{
		cfg:        cfg,
		wc:         wc,
		ownWC:      own,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}, nil
}

// Scan fetches req.Target, extracts its surface and audits it. Enabled
// categories are audited concurrently.
func (o *Orchestrator) Scan(ctx context.Context, req ScanRequest) (*Report, error) {
	return o.scan(ctx, uuid.New().String(), req)
}

func (o *Orchestrator) scan(ctx context.Context, scanID string, req ScanRequest) (*Report, error) {
	logger := o.logger.With(
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "target", Value: req.Target})
	started := time.Now().UTC()

	comps, err := NewScanComponents(o.wc, req.Target, req.Options, logger)
	if err != nil {
		return nil, err
	}

	resp, err := o.wc.Get(ctx, req.Target)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Target, err)
	}

	structure, err := comps.Analyzer.Run(req.Target, string(resp.Body), resp.Headers)
	if err != nil {
		return nil, err
	}

	auditor, err := comps.Auditor(structure, logger)
	if err != nil {
		return nil, fmt.Errorf("new auditor: %w", err)
	}

	var links, forms, cookies []audit.Finding
	g, gctx := errgroup.WithContext(ctx)
	if req.Options.Links {
		g.Go(func() error {
			links = auditor.AuditLinks(gctx, req.Probe)
			return gctx.Err()
		})
	}
	if req.Options.Forms {
		g.Go(func() error {
			forms = auditor.AuditForms(gctx, req.Probe)
			return gctx.Err()
		})
	}
	if req.Options.Cookies {
		g.Go(func() error {
			cookies = auditor.AuditCookies(gctx, req.Probe)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("audit %s: %w", req.Target, err)
	}

	findings := make([]audit.Finding, 0, len(links)+len(forms)+len(cookies))
	findings = append(findings, links...)
	findings = append(findings, forms...)
	findings = append(findings, cookies...)

	report := &Report{
		ScanID:     scanID,
		Target:     req.Target,
		Payload:    req.Probe.Payload,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Forms:      len(structure.Forms),
		Links:      len(structure.Links),
		Cookies:    len(structure.Cookies),
		Findings:   findings,
	}
	logger.Info("scan finished", logging.Field{Key: "findings", Value: len(findings)})
	return report, nil
}

// StartScanJob runs Scan in the background. The returned job's Events
// channel is closed once the job reaches a final status.
func (o *Orchestrator) StartScanJob(ctx context.Context, req ScanRequest) (*Job, error) {
	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		Target:    req.Target,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}

	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		cancel()
		return nil, ErrOrchestratorClosed
	}
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.wg.Add(1)
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer o.wg.Done()
		defer o.finishJob(jobID)

		o.setStatus(jobID, JobRunning, "")
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobRunning})

		report, err := o.scan(jobCtx, jobID, req)
		switch {
		case jobCtx.Err() != nil:
			o.setStatus(jobID, JobCanceled, jobCtx.Err().Error())
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobCanceled, Error: jobCtx.Err().Error()})
		case err != nil:
			o.logger.Warn("scan job failed",
				logging.Field{Key: "job_id", Value: jobID},
				logging.Field{Key: "error", Value: err.Error()})
			o.setStatus(jobID, JobFailed, err.Error())
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
		default:
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobDone
				j.Report = report
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventResult, Status: JobDone, Findings: len(report.Findings)})
		}
	}()

	return o.GetJob(jobID), nil
}

// CancelJob cancels a running job; unknown IDs are ignored.
func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a snapshot of the job, or nil when it is unknown or expired.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *j
	return &snapshot
}

// ListJobs returns snapshots of all retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []Job {
	o.jobsMu.Lock()
	out := make([]Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, *j)
	}
	o.jobsMu.Unlock()

	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// Close cancels running jobs, waits for them and releases the webclient
// when the orchestrator built it.
func (o *Orchestrator) Close() error {
	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return nil
	}
	o.closed = true
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()

	o.wg.Wait()

	if o.ownWC {
		return o.wc.Close()
	}
	return nil
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		j.Error = errMsg
	}
}

func (o *Orchestrator) finishJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	delete(o.jobCancels, jobID)
	j := o.jobs[jobID]
	if j != nil {
		j.EndedAt = time.Now().UTC()
	}
	o.jobsMu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Close events channel so listeners can stop ranging.
	if j != nil && j.Events != nil {
		close(j.Events)
	}

	if ttl := o.cfg.JobRetentionTime; ttl > 0 {
		time.AfterFunc(ttl, func() {
			o.jobsMu.Lock()
			delete(o.jobs, jobID)
			o.jobsMu.Unlock()
		})
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}
