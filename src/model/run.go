package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of an analysis or fix run
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is a final state
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Active reports whether a run in this status still occupies its repository
func (s RunStatus) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// AnalysisRun tracks one scan of a repository tree
type AnalysisRun struct {
	ID            string            `json:"id"`
	RepoID        int64             `json:"repo_id"`
	RepoFullName  string            `json:"repo_full_name"` // owner/name
	Branch        string            `json:"branch"`
	UserID        string            `json:"user_id"`
	Status        RunStatus         `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	LastHeartbeat time.Time         `json:"last_heartbeat"`
	IssueCount    int               `json:"issue_count"` // total raw matches, not group count
	FileCount     int               `json:"file_count"`  // distinct files with at least one match
	Issues        []AggregatedIssue `json:"issues,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// NewAnalysisRun creates a run in the running state with a fresh id
func NewAnalysisRun(repoID int64, repoFullName, branch, userID string) *AnalysisRun {
	now := time.Now().UTC()
	return &AnalysisRun{
		ID:            uuid.New().String(),
		RepoID:        repoID,
		RepoFullName:  repoFullName,
		Branch:        branch,
		UserID:        userID,
		Status:        StatusRunning,
		CreatedAt:     now,
		LastHeartbeat: now,
	}
}

// FixRun tracks one AI fix pass over a completed analysis
type FixRun struct {
	ID                string      `json:"id"`
	AnalysisID        string      `json:"analysis_id"`
	RepoID            int64       `json:"repo_id"`
	RepoFullName      string      `json:"repo_full_name"`
	Branch            string      `json:"branch"`
	UserID            string      `json:"user_id"`
	Status            RunStatus   `json:"status"`
	Selection         []string    `json:"selection,omitempty"` // rule ids; empty = all
	CreatePullRequest bool        `json:"create_pull_request"`
	FixedIssues       []FixResult `json:"fixed_issues,omitempty"`
	PullRequestURL    string      `json:"pull_request_url,omitempty"`
	PullRequestNumber int         `json:"pull_request_number,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	LastHeartbeat     time.Time   `json:"last_heartbeat"`
	Error             string      `json:"error,omitempty"`
}

// NewFixRun creates a fix run in the running state bound to its analysis
func NewFixRun(analysis *AnalysisRun, selection []string, createPR bool, userID string) *FixRun {
	now := time.Now().UTC()
	return &FixRun{
		ID:                uuid.New().String(),
		AnalysisID:        analysis.ID,
		RepoID:            analysis.RepoID,
		RepoFullName:      analysis.RepoFullName,
		Branch:            analysis.Branch,
		UserID:            userID,
		Status:            StatusRunning,
		Selection:         selection,
		CreatePullRequest: createPR,
		CreatedAt:         now,
		LastHeartbeat:     now,
	}
}

// FixBranch returns the deterministic branch name for this fix run
func (f *FixRun) FixBranch() string {
	id := strings.ReplaceAll(f.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "ai-fix-" + id
}

// FixResult records the outcome for one fixed example. Committed results
// carry the branch that received the commit; suggestion-only results carry
// both file versions instead.
type FixResult struct {
	RuleID          string `json:"rule_id"`
	FilePath        string `json:"file_path"`
	Line            int    `json:"line"`
	Committed       bool   `json:"committed"`
	Branch          string `json:"branch,omitempty"`
	OriginalContent string `json:"original_content,omitempty"`
	FixedContent    string `json:"fixed_content,omitempty"`
}

// SplitFullName splits an "owner/name" repository identifier
func SplitFullName(fullName string) (owner, name string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository full name: %q", fullName)
	}
	return parts[0], parts[1], nil
}
