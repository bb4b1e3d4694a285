package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/rules"
	"github.com/justin7251/ai-code-fixer/src/store"
)

func newAnalysisController(t *testing.T, provider *fakeProvider) (*AnalysisController, store.RunStore) {
	t.Helper()
	st := store.NewMemoryStore()
	pool := newTestPool(t, st)
	ctrl := NewAnalysisController(testConfig(), st, provider, rules.DefaultTable(), pool)
	return ctrl, st
}

func TestAnalysisScanCompletes(t *testing.T) {
	provider := newFakeProvider()
	provider.addFile("a.js", "function main() {\n  let x = 1\n  console.log(\"x\")\n  let z = 2\n  var y = 1\n}")

	ctrl, st := newAnalysisController(t, provider)

	run, err := ctrl.Start(context.Background(), AnalyzeRequest{
		RepoID: 1, RepoFullName: "octocat/hello", Branch: "main", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, run.Status)

	done := waitForAnalysis(t, st, run.ID)
	require.Equal(t, model.StatusCompleted, done.Status)
	assert.Empty(t, done.Error)
	require.NotNil(t, done.CompletedAt)

	assert.Equal(t, 2, done.IssueCount)
	assert.Equal(t, 1, done.FileCount)
	require.Len(t, done.Issues, 2)
	assert.Equal(t, "AvoidConsoleLog", done.Issues[0].RuleID)
	assert.Equal(t, 1, done.Issues[0].Count)
	require.Len(t, done.Issues[0].Examples, 1)
	assert.Equal(t, "a.js", done.Issues[0].Examples[0].FilePath)
	assert.Equal(t, 3, done.Issues[0].Examples[0].Line)
	assert.Equal(t, "UseConstOrLet", done.Issues[1].RuleID)
}

func TestAnalysisEmptyRepository(t *testing.T) {
	provider := newFakeProvider()

	ctrl, st := newAnalysisController(t, provider)
	run, err := ctrl.Start(context.Background(), AnalyzeRequest{
		RepoID: 1, RepoFullName: "octocat/empty", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "main", run.Branch)

	done := waitForAnalysis(t, st, run.ID)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Zero(t, done.IssueCount)
	assert.Zero(t, done.FileCount)
	assert.Empty(t, done.Issues)
}

func TestAnalysisRejectsInvalidFullName(t *testing.T) {
	ctrl, st := newAnalysisController(t, newFakeProvider())

	_, err := ctrl.Start(context.Background(), AnalyzeRequest{RepoID: 1, RepoFullName: "not-a-full-name"})
	require.Error(t, err)

	runs, err := st.ListAnalysisRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAnalysisRootFailureFailsRun(t *testing.T) {
	provider := newFakeProvider()
	provider.listErr[""] = errors.New("404 not found")

	ctrl, st := newAnalysisController(t, provider)
	run, err := ctrl.Start(context.Background(), AnalyzeRequest{
		RepoID: 1, RepoFullName: "octocat/missing", UserID: "u1",
	})
	require.NoError(t, err)

	done := waitForAnalysis(t, st, run.ID)
	assert.Equal(t, model.StatusFailed, done.Status)
	assert.Contains(t, done.Error, "listing repository root")
}

func TestAnalysisRejectsConcurrentRunForRepo(t *testing.T) {
	ctrl, st := newAnalysisController(t, newFakeProvider())
	ctx := context.Background()

	// An active run for the repository already exists.
	active := model.NewAnalysisRun(42, "octocat/busy", "main", "u1")
	require.NoError(t, st.CreateAnalysisRun(ctx, active))

	_, err := ctrl.Start(ctx, AnalyzeRequest{RepoID: 42, RepoFullName: "octocat/busy", UserID: "u2"})

	var conflict *store.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, active.ID, conflict.Existing.ID)

	// No second record was written.
	runs, err := st.ListAnalysisRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	// Once the existing run is terminal a new one is admitted.
	active.Status = model.StatusFailed
	require.NoError(t, st.UpdateAnalysisRun(ctx, active))

	run, err := ctrl.Start(ctx, AnalyzeRequest{RepoID: 42, RepoFullName: "octocat/busy", UserID: "u2"})
	require.NoError(t, err)
	waitForAnalysis(t, st, run.ID)
}

func TestAnalysisGetAndList(t *testing.T) {
	provider := newFakeProvider()
	provider.addFile("a.py", "print('hi')")

	ctrl, st := newAnalysisController(t, provider)
	run, err := ctrl.Start(context.Background(), AnalyzeRequest{
		RepoID: 1, RepoFullName: "octocat/hello", UserID: "u1",
	})
	require.NoError(t, err)
	waitForAnalysis(t, st, run.ID)

	got, err := ctrl.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	list, err := ctrl.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
