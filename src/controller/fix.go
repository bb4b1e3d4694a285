package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/ai"
	"github.com/justin7251/ai-code-fixer/src/service/github"
	"github.com/justin7251/ai-code-fixer/src/store"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// Precondition errors surfaced synchronously when a fix is requested
var (
	ErrAnalysisNotFound     = errors.New("analysis not found")
	ErrAnalysisNotCompleted = errors.New("analysis is not completed")
	ErrNoIssuesToFix        = errors.New("no issues to fix")
)

// FixController owns the lifecycle of fix runs: it validates preconditions
// against the originating analysis, asks the model for whole-file rewrites,
// and either records suggestions or commits them behind a pull request.
type FixController struct {
	cfg       *config.Config
	store     store.RunStore
	provider  github.Provider
	generator ai.Generator
	pool      *Pool
}

// NewFixController creates a new fix controller
func NewFixController(cfg *config.Config, st store.RunStore, provider github.Provider, generator ai.Generator, pool *Pool) *FixController {
	return &FixController{
		cfg:       cfg,
		store:     st,
		provider:  provider,
		generator: generator,
		pool:      pool,
	}
}

// Start validates the request, persists a fix run in the running state and
// schedules the fix work. An empty selection means every issue of the
// analysis.
func (c *FixController) Start(ctx context.Context, analysisID string, selection []string, createPR bool, userID string) (*model.FixRun, error) {
	analysis, err := c.store.GetAnalysisRun(ctx, analysisID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, analysisID)
		}
		return nil, err
	}
	if analysis.Status != model.StatusCompleted {
		return nil, fmt.Errorf("%w: analysis %s is %s", ErrAnalysisNotCompleted, analysisID, analysis.Status)
	}

	if len(selection) == 0 {
		for _, issue := range analysis.Issues {
			selection = append(selection, issue.RuleID)
		}
	}
	if len(selection) == 0 {
		return nil, fmt.Errorf("%w: analysis %s found no issues", ErrNoIssuesToFix, analysisID)
	}

	fix := model.NewFixRun(analysis, selection, createPR, userID)
	if err := c.store.CreateFixRun(ctx, fix); err != nil {
		return nil, err
	}

	util.Info("Fix %s created for analysis %s (%d rules, pr: %v)", fix.ID, analysisID, len(selection), createPR)

	if err := c.pool.Enqueue(fix.ID, func(jobCtx context.Context) {
		c.execute(jobCtx, fix.ID)
	}); err != nil {
		c.fail(ctx, fix, fmt.Sprintf("scheduling fix: %v", err))
		return nil, fmt.Errorf("scheduling fix: %w", err)
	}

	return fix, nil
}

// Get returns the fix run record for polling
func (c *FixController) Get(ctx context.Context, id string) (*model.FixRun, error) {
	return c.store.GetFixRun(ctx, id)
}

// execute drives one fix run to a terminal state. Per-example failures are
// logged and skipped; the run only fails when nothing at all could be
// processed or a step outside the per-example scope breaks.
func (c *FixController) execute(ctx context.Context, fixID string) {
	fix, err := c.store.GetFixRun(ctx, fixID)
	if err != nil {
		util.Error("Cannot load fix %s: %v", fixID, err)
		return
	}

	stop := c.pool.StartHeartbeat(ctx, fix.ID, c.store.HeartbeatFixRun)
	defer stop()

	analysis, err := c.store.GetAnalysisRun(ctx, fix.AnalysisID)
	if err != nil {
		c.fail(ctx, fix, fmt.Sprintf("reading analysis %s: %v", fix.AnalysisID, err))
		return
	}

	owner, name, err := model.SplitFullName(fix.RepoFullName)
	if err != nil {
		c.fail(ctx, fix, err.Error())
		return
	}

	selected := make(map[string]bool, len(fix.Selection))
	for _, ruleID := range fix.Selection {
		selected[ruleID] = true
	}

	branch := fix.FixBranch()
	branchReady := false
	attempted := 0
	failed := 0
	var results []model.FixResult

	for _, issue := range analysis.Issues {
		if !selected[issue.RuleID] {
			continue
		}
		for _, example := range issue.Examples {
			attempted++
			result, err := c.fixExample(ctx, owner, name, analysis, fix, issue, example, branch, &branchReady)
			if err != nil {
				failed++
				util.Warn("Skipping %s in %s:%d: %v", issue.RuleID, example.FilePath, example.Line, err)
				continue
			}
			if result != nil {
				results = append(results, *result)
			}
		}
	}

	fix.FixedIssues = results

	if attempted > 0 && len(results) == 0 && failed == attempted {
		c.fail(ctx, fix, "every fix attempt failed")
		return
	}

	if fix.CreatePullRequest && countCommitted(results) > 0 {
		pr, err := c.provider.CreatePullRequest(ctx, owner, name,
			c.pullRequestTitle(results), c.pullRequestBody(results), branch, analysis.Branch)
		if err != nil {
			c.fail(ctx, fix, fmt.Sprintf("opening pull request: %v", err))
			return
		}
		fix.PullRequestURL = pr.URL
		fix.PullRequestNumber = pr.Number
		util.Info("Fix %s opened pull request #%d (%s)", fix.ID, pr.Number, pr.URL)
	}

	now := time.Now().UTC()
	fix.Status = model.StatusCompleted
	fix.CompletedAt = &now
	fix.LastHeartbeat = now

	if err := c.store.UpdateFixRun(ctx, fix); err != nil {
		util.Error("Cannot finalize fix %s: %v", fix.ID, err)
		return
	}

	util.Info("Fix %s completed: %d of %d examples fixed", fix.ID, len(results), attempted)
}

// fixExample handles one flagged occurrence. A nil result with a nil error
// means the model produced a no-op rewrite, which is skipped silently.
func (c *FixController) fixExample(ctx context.Context, owner, name string, analysis *model.AnalysisRun, fix *model.FixRun, issue model.AggregatedIssue, example model.IssueExample, branch string, branchReady *bool) (*model.FixResult, error) {
	current, err := c.provider.GetFileContent(ctx, owner, name, example.FilePath, analysis.Branch)
	if err != nil {
		return nil, fmt.Errorf("fetching file: %w", err)
	}

	prompt := ai.BuildFixPrompt(issue.RuleID, issue.Description, example.Snippet, example.FilePath, current.Content)
	response, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating fix: %w", err)
	}

	fixed := ai.ExtractCode(response)
	if fixed == current.Content {
		util.Debug("No-op fix for %s in %s, skipping", issue.RuleID, example.FilePath)
		return nil, nil
	}

	if !fix.CreatePullRequest {
		return &model.FixResult{
			RuleID:          issue.RuleID,
			FilePath:        example.FilePath,
			Line:            example.Line,
			Committed:       false,
			OriginalContent: current.Content,
			FixedContent:    fixed,
		}, nil
	}

	if !*branchReady {
		if err := c.ensureBranch(ctx, owner, name, branch, analysis.Branch); err != nil {
			return nil, fmt.Errorf("preparing branch %s: %w", branch, err)
		}
		*branchReady = true
	}

	message := fmt.Sprintf("fix: %s in %s", issue.RuleID, example.FilePath)
	if err := c.provider.CommitFile(ctx, owner, name, example.FilePath, branch, message, fixed, current.SHA); err != nil {
		return nil, fmt.Errorf("committing fix: %w", err)
	}

	return &model.FixResult{
		RuleID:    issue.RuleID,
		FilePath:  example.FilePath,
		Line:      example.Line,
		Committed: true,
		Branch:    branch,
	}, nil
}

// ensureBranch creates the fix branch from the analysis branch head.
// A branch that already exists is fine; a retried run reuses it.
func (c *FixController) ensureBranch(ctx context.Context, owner, name, branch, base string) error {
	head, err := c.provider.GetBranchHead(ctx, owner, name, base)
	if err != nil {
		return fmt.Errorf("resolving head of %s: %w", base, err)
	}

	err = c.provider.CreateBranch(ctx, owner, name, branch, head)
	if err != nil {
		var apiErr *github.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			util.Debug("Branch %s already exists, reusing it", branch)
			return nil
		}
		return err
	}
	return nil
}

func (c *FixController) pullRequestTitle(results []model.FixResult) string {
	return fmt.Sprintf("AI code fixes (%d changes)", countCommitted(results))
}

func (c *FixController) pullRequestBody(results []model.FixResult) string {
	var sb strings.Builder
	sb.WriteString("Automated fixes generated from a repository scan.\n\n")
	for _, r := range results {
		if !r.Committed {
			continue
		}
		sb.WriteString(fmt.Sprintf("- `%s` in `%s`\n", r.RuleID, r.FilePath))
	}
	return sb.String()
}

func (c *FixController) fail(ctx context.Context, fix *model.FixRun, msg string) {
	now := time.Now().UTC()
	fix.Status = model.StatusFailed
	fix.Error = msg
	fix.CompletedAt = &now
	fix.LastHeartbeat = now
	if err := c.store.UpdateFixRun(ctx, fix); err != nil {
		util.Error("Cannot record failure for fix %s: %v", fix.ID, err)
	}
	util.Error("Fix %s failed: %s", fix.ID, msg)
}

func countCommitted(results []model.FixResult) int {
	n := 0
	for _, r := range results {
		if r.Committed {
			n++
		}
	}
	return n
}
