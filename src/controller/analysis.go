package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/github"
	"github.com/justin7251/ai-code-fixer/src/service/rules"
	"github.com/justin7251/ai-code-fixer/src/service/scanner"
	"github.com/justin7251/ai-code-fixer/src/store"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// AnalysisController owns the lifecycle of analysis runs: it creates run
// records, rejects duplicates while one is active, and drives the
// walk-scan-aggregate pipeline on the worker pool.
type AnalysisController struct {
	cfg      *config.Config
	store    store.RunStore
	provider github.Provider
	table    rules.Table
	pool     *Pool
}

// NewAnalysisController creates a new analysis controller
func NewAnalysisController(cfg *config.Config, st store.RunStore, provider github.Provider, table rules.Table, pool *Pool) *AnalysisController {
	return &AnalysisController{
		cfg:      cfg,
		store:    st,
		provider: provider,
		table:    table,
		pool:     pool,
	}
}

// AnalyzeRequest identifies the repository to analyze
type AnalyzeRequest struct {
	RepoID       int64
	RepoFullName string // owner/name
	Branch       string
	UserID       string
}

// Start creates a run record and schedules the scan. It returns without
// waiting for the scan; callers poll Get until the run is terminal. When
// the repository already has an active run the request fails with a
// *store.ConflictError carrying that run.
func (c *AnalysisController) Start(ctx context.Context, req AnalyzeRequest) (*model.AnalysisRun, error) {
	if _, _, err := model.SplitFullName(req.RepoFullName); err != nil {
		return nil, err
	}
	if req.Branch == "" {
		req.Branch = "main"
	}

	run := model.NewAnalysisRun(req.RepoID, req.RepoFullName, req.Branch, req.UserID)
	if err := c.store.CreateAnalysisRun(ctx, run); err != nil {
		return nil, err
	}

	util.Info("Analysis %s created for %s@%s", run.ID, run.RepoFullName, run.Branch)

	if err := c.pool.Enqueue(run.ID, func(jobCtx context.Context) {
		c.execute(jobCtx, run.ID)
	}); err != nil {
		// The run would block its repository forever if left active.
		c.fail(ctx, run, fmt.Sprintf("scheduling scan: %v", err))
		return nil, fmt.Errorf("scheduling scan: %w", err)
	}

	return run, nil
}

// Get returns the run record for polling
func (c *AnalysisController) Get(ctx context.Context, id string) (*model.AnalysisRun, error) {
	return c.store.GetAnalysisRun(ctx, id)
}

// List returns the most recent runs
func (c *AnalysisController) List(ctx context.Context, limit int) ([]*model.AnalysisRun, error) {
	return c.store.ListAnalysisRuns(ctx, limit)
}

// execute runs the scan pipeline for one run. Errors never propagate to a
// caller from here; they are captured on the run record.
func (c *AnalysisController) execute(ctx context.Context, runID string) {
	run, err := c.store.GetAnalysisRun(ctx, runID)
	if err != nil {
		util.Error("Cannot load analysis %s: %v", runID, err)
		return
	}

	stop := c.pool.StartHeartbeat(ctx, run.ID, c.store.HeartbeatAnalysisRun)
	defer stop()

	startTime := time.Now()
	owner, name, err := model.SplitFullName(run.RepoFullName)
	if err != nil {
		c.fail(ctx, run, err.Error())
		return
	}

	walker := scanner.NewWalker(c.provider, c.cfg.Scanner)
	files, err := walker.Walk(ctx, owner, name, run.Branch, "")
	if err != nil {
		// Only the root listing fails a walk; anything here is fatal.
		c.fail(ctx, run, fmt.Sprintf("listing repository root: %v", err))
		return
	}

	var raw []model.RawIssue
	for _, f := range files {
		raw = append(raw, scanner.Scan(c.table, f.Content, f.Path, f.Language)...)
	}

	now := time.Now().UTC()
	run.Issues = scanner.Aggregate(raw)
	run.IssueCount = len(raw)
	run.FileCount = scanner.CountFiles(raw)
	run.Status = model.StatusCompleted
	run.CompletedAt = &now
	run.LastHeartbeat = now

	if err := c.store.UpdateAnalysisRun(ctx, run); err != nil {
		util.Error("Cannot finalize analysis %s: %v", run.ID, err)
		return
	}

	util.Info("Analysis %s completed: %d issues in %d files (took %v)",
		run.ID, run.IssueCount, run.FileCount, time.Since(startTime))
}

func (c *AnalysisController) fail(ctx context.Context, run *model.AnalysisRun, msg string) {
	now := time.Now().UTC()
	run.Status = model.StatusFailed
	run.Error = msg
	run.CompletedAt = &now
	run.LastHeartbeat = now
	if err := c.store.UpdateAnalysisRun(ctx, run); err != nil {
		util.Error("Cannot record failure for analysis %s: %v", run.ID, err)
	}
	util.Error("Analysis %s failed: %s", run.ID, msg)
}
