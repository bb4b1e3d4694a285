package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/justin7251/ai-code-fixer/src/model"
)

const (
	analysisRunsTable = "analysis_runs"
	fixRunsTable      = "fix_runs"
)

// SQLiteStore is a RunStore backed by an embedded SQLite database.
// A partial unique index on active analysis runs makes the one-active-run-
// per-repository invariant hold even across processes.
type SQLiteStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
	}
	// Limit SQLite to a single open connection to avoid "database is locked" errors
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + analysisRunsTable + ` (
			id TEXT PRIMARY KEY,
			repo_id INTEGER NOT NULL,
			repo_full_name TEXT NOT NULL,
			branch TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			completed_at TEXT,
			last_heartbeat TEXT NOT NULL,
			issue_count INTEGER NOT NULL DEFAULT 0,
			file_count INTEGER NOT NULL DEFAULT 0,
			issues TEXT,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_analysis_active
			ON ` + analysisRunsTable + `(repo_id)
			WHERE status IN ('pending', 'running')`,
		`CREATE TABLE IF NOT EXISTS ` + fixRunsTable + ` (
			id TEXT PRIMARY KEY,
			analysis_id TEXT NOT NULL,
			repo_id INTEGER NOT NULL,
			repo_full_name TEXT NOT NULL,
			branch TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			selection TEXT,
			create_pull_request INTEGER NOT NULL DEFAULT 0,
			fixed_issues TEXT,
			pull_request_url TEXT NOT NULL DEFAULT '',
			pull_request_number INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			completed_at TEXT,
			last_heartbeat TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	issues, err := json.Marshal(run.Issues)
	if err != nil {
		return fmt.Errorf("marshaling issues: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+analysisRunsTable+`
			(id, repo_id, repo_full_name, branch, user_id, status, created_at, completed_at, last_heartbeat, issue_count, file_count, issues, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RepoID, run.RepoFullName, run.Branch, run.UserID, string(run.Status),
		formatTime(run.CreatedAt), formatTimePtr(run.CompletedAt), formatTime(run.LastHeartbeat),
		run.IssueCount, run.FileCount, string(issues), run.Error)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, findErr := s.FindActiveAnalysisRun(ctx, run.RepoID)
			if findErr == nil && existing != nil {
				return &ConflictError{Existing: existing}
			}
		}
		return fmt.Errorf("inserting analysis run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAnalysisRun(ctx context.Context, id string) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, repo_id, repo_full_name, branch, user_id, status, created_at, completed_at, last_heartbeat, issue_count, file_count, issues, error
		 FROM `+analysisRunsTable+` WHERE id = ?`, id)
	return scanAnalysisRun(row)
}

func (s *SQLiteStore) UpdateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	issues, err := json.Marshal(run.Issues)
	if err != nil {
		return fmt.Errorf("marshaling issues: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+analysisRunsTable+`
		 SET status = ?, completed_at = ?, last_heartbeat = ?, issue_count = ?, file_count = ?, issues = ?, error = ?
		 WHERE id = ?`,
		string(run.Status), formatTimePtr(run.CompletedAt), formatTime(run.LastHeartbeat),
		run.IssueCount, run.FileCount, string(issues), run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("updating analysis run: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) FindActiveAnalysisRun(ctx context.Context, repoID int64) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, repo_id, repo_full_name, branch, user_id, status, created_at, completed_at, last_heartbeat, issue_count, file_count, issues, error
		 FROM `+analysisRunsTable+` WHERE repo_id = ? AND status IN ('pending', 'running')`, repoID)
	run, err := scanAnalysisRun(row)
	if err == ErrNotFound {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) ListAnalysisRuns(ctx context.Context, limit int) ([]*model.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, repo_id, repo_full_name, branch, user_id, status, created_at, completed_at, last_heartbeat, issue_count, file_count, issues, error
		 FROM `+analysisRunsTable+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.AnalysisRun
	for rows.Next() {
		run, err := scanAnalysisRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) HeartbeatAnalysisRun(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+analysisRunsTable+` SET last_heartbeat = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("recording heartbeat: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) CreateFixRun(ctx context.Context, run *model.FixRun) error {
	selection, err := json.Marshal(run.Selection)
	if err != nil {
		return fmt.Errorf("marshaling selection: %w", err)
	}
	fixed, err := json.Marshal(run.FixedIssues)
	if err != nil {
		return fmt.Errorf("marshaling fixed issues: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+fixRunsTable+`
			(id, analysis_id, repo_id, repo_full_name, branch, user_id, status, selection, create_pull_request, fixed_issues, pull_request_url, pull_request_number, created_at, completed_at, last_heartbeat, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AnalysisID, run.RepoID, run.RepoFullName, run.Branch, run.UserID,
		string(run.Status), string(selection), boolToInt(run.CreatePullRequest), string(fixed),
		run.PullRequestURL, run.PullRequestNumber,
		formatTime(run.CreatedAt), formatTimePtr(run.CompletedAt), formatTime(run.LastHeartbeat), run.Error)
	if err != nil {
		return fmt.Errorf("inserting fix run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetFixRun(ctx context.Context, id string) (*model.FixRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, analysis_id, repo_id, repo_full_name, branch, user_id, status, selection, create_pull_request, fixed_issues, pull_request_url, pull_request_number, created_at, completed_at, last_heartbeat, error
		 FROM `+fixRunsTable+` WHERE id = ?`, id)
	return scanFixRun(row)
}

func (s *SQLiteStore) UpdateFixRun(ctx context.Context, run *model.FixRun) error {
	fixed, err := json.Marshal(run.FixedIssues)
	if err != nil {
		return fmt.Errorf("marshaling fixed issues: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE `+fixRunsTable+`
		 SET status = ?, fixed_issues = ?, pull_request_url = ?, pull_request_number = ?, completed_at = ?, last_heartbeat = ?, error = ?
		 WHERE id = ?`,
		string(run.Status), string(fixed), run.PullRequestURL, run.PullRequestNumber,
		formatTimePtr(run.CompletedAt), formatTime(run.LastHeartbeat), run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("updating fix run: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ListFixRuns(ctx context.Context, limit int) ([]*model.FixRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, repo_id, repo_full_name, branch, user_id, status, selection, create_pull_request, fixed_issues, pull_request_url, pull_request_number, created_at, completed_at, last_heartbeat, error
		 FROM `+fixRunsTable+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing fix runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.FixRun
	for rows.Next() {
		run, err := scanFixRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) HeartbeatFixRun(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+fixRunsTable+` SET last_heartbeat = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("recording heartbeat: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) ReapStale(ctx context.Context, olderThan time.Time) (int, error) {
	cutoff := formatTime(olderThan)
	now := formatTime(time.Now().UTC())
	total := 0

	for _, table := range []string{analysisRunsTable, fixRunsTable} {
		res, err := s.db.ExecContext(ctx,
			`UPDATE `+table+`
			 SET status = 'failed', error = 'run abandoned: heartbeat expired', completed_at = ?
			 WHERE status IN ('pending', 'running') AND last_heartbeat < ?`, now, cutoff)
		if err != nil {
			return total, fmt.Errorf("reaping stale runs in %s: %w", table, err)
		}
		affected, _ := res.RowsAffected()
		total += int(affected)
	}
	return total, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysisRun(row rowScanner) (*model.AnalysisRun, error) {
	var run model.AnalysisRun
	var status, createdAt, lastHeartbeat, issues string
	var completedAt sql.NullString

	err := row.Scan(&run.ID, &run.RepoID, &run.RepoFullName, &run.Branch, &run.UserID,
		&status, &createdAt, &completedAt, &lastHeartbeat,
		&run.IssueCount, &run.FileCount, &issues, &run.Error)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning analysis run: %w", err)
	}

	run.Status = model.RunStatus(status)
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if run.LastHeartbeat, err = parseTime(lastHeartbeat); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if issues != "" && issues != "null" {
		if err := json.Unmarshal([]byte(issues), &run.Issues); err != nil {
			return nil, fmt.Errorf("unmarshaling issues: %w", err)
		}
	}
	return &run, nil
}

func scanFixRun(row rowScanner) (*model.FixRun, error) {
	var run model.FixRun
	var status, createdAt, lastHeartbeat, selection, fixed string
	var completedAt sql.NullString
	var createPR int

	err := row.Scan(&run.ID, &run.AnalysisID, &run.RepoID, &run.RepoFullName, &run.Branch, &run.UserID,
		&status, &selection, &createPR, &fixed, &run.PullRequestURL, &run.PullRequestNumber,
		&createdAt, &completedAt, &lastHeartbeat, &run.Error)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning fix run: %w", err)
	}

	run.Status = model.RunStatus(status)
	run.CreatePullRequest = createPR != 0
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if run.LastHeartbeat, err = parseTime(lastHeartbeat); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if selection != "" && selection != "null" {
		if err := json.Unmarshal([]byte(selection), &run.Selection); err != nil {
			return nil, fmt.Errorf("unmarshaling selection: %w", err)
		}
	}
	if fixed != "" && fixed != "null" {
		if err := json.Unmarshal([]byte(fixed), &run.FixedIssues); err != nil {
			return nil, fmt.Errorf("unmarshaling fixed issues: %w", err)
		}
	}
	return &run, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
