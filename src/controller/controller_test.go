package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/model"
	"github.com/justin7251/ai-code-fixer/src/service/github"
	"github.com/justin7251/ai-code-fixer/src/store"
)

// fakeProvider is an in-memory source host shared by the controller tests.
// It serves a fixed tree and records every mutating call.
type fakeProvider struct {
	mu    sync.Mutex
	dirs  map[string][]github.TreeEntry
	files map[string]string

	listErr   map[string]error
	fetchErr  map[string]error
	branchErr error
	commitErr error
	prErr     error

	branchesCreated []string
	commits         []fakeCommit
	pullRequests    []fakePullRequest
}

type fakeCommit struct {
	Path    string
	Branch  string
	Message string
	Content string
	SHA     string
}

type fakePullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		dirs:     make(map[string][]github.TreeEntry),
		files:    make(map[string]string),
		listErr:  make(map[string]error),
		fetchErr: make(map[string]error),
	}
}

func (p *fakeProvider) addFile(path, content string) {
	p.files[path] = content
	p.dirs[""] = append(p.dirs[""], github.TreeEntry{
		Name: path, Path: path, Type: "file", SHA: "sha-" + path,
	})
}

func (p *fakeProvider) ListDirectory(_ context.Context, _, _, path, _ string) ([]github.TreeEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.listErr[path]; err != nil {
		return nil, err
	}
	return p.dirs[path], nil
}

func (p *fakeProvider) GetFileContent(_ context.Context, _, _, path, _ string) (*github.FileContent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fetchErr[path]; err != nil {
		return nil, err
	}
	content, ok := p.files[path]
	if !ok {
		return nil, errors.New("file not found: " + path)
	}
	return &github.FileContent{Path: path, Content: content, SHA: "sha-" + path}, nil
}

func (p *fakeProvider) GetBranchHead(_ context.Context, _, _, branch string) (string, error) {
	return "head-of-" + branch, nil
}

func (p *fakeProvider) CreateBranch(_ context.Context, _, _, name, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.branchErr != nil {
		return p.branchErr
	}
	p.branchesCreated = append(p.branchesCreated, name)
	return nil
}

func (p *fakeProvider) CommitFile(_ context.Context, _, _, path, branch, message, content, sha string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.commitErr != nil {
		return p.commitErr
	}
	p.commits = append(p.commits, fakeCommit{
		Path: path, Branch: branch, Message: message, Content: content, SHA: sha,
	})
	return nil
}

func (p *fakeProvider) CreatePullRequest(_ context.Context, _, _, title, body, head, base string) (*github.PullRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prErr != nil {
		return nil, p.prErr
	}
	p.pullRequests = append(p.pullRequests, fakePullRequest{
		Title: title, Body: body, Head: head, Base: base,
	})
	return &github.PullRequest{
		URL:    "https://github.com/octocat/hello/pull/1",
		Number: 1,
	}, nil
}

// fakeGenerator returns canned model responses keyed by nothing; the test
// supplies the function.
type fakeGenerator struct {
	fn func(prompt string) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	return g.fn(prompt)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scanner.FetchWorkers = 2
	return cfg
}

func newTestPool(t *testing.T, st store.RunStore) *Pool {
	t.Helper()
	pool := NewPool(config.WorkerConfig{
		Workers:           2,
		QueueSize:         8,
		HeartbeatInterval: 50 * time.Millisecond,
		LeaseTimeout:      time.Minute,
		ReapInterval:      time.Hour,
	}, st)
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool
}

func waitForAnalysis(t *testing.T, st store.RunStore, id string) *model.AnalysisRun {
	t.Helper()
	var run *model.AnalysisRun
	require.Eventually(t, func() bool {
		got, err := st.GetAnalysisRun(context.Background(), id)
		if err != nil {
			return false
		}
		run = got
		return run.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "analysis %s never reached a terminal state", id)
	return run
}

func waitForFix(t *testing.T, st store.RunStore, id string) *model.FixRun {
	t.Helper()
	var run *model.FixRun
	require.Eventually(t, func() bool {
		got, err := st.GetFixRun(context.Background(), id)
		if err != nil {
			return false
		}
		run = got
		return run.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "fix %s never reached a terminal state", id)
	return run
}
