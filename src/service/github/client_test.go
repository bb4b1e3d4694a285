package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justin7251/ai-code-fixer/src/config"
)

func testClient(serverURL string) *Client {
	return NewClient(config.GitHubConfig{
		APIBaseURL: serverURL,
		Token:      "test-token",
		Timeout:    5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:   2,
			BackoffFactor: 1.0,
			InitialDelay:  time.Millisecond,
			MaxDelay:      10 * time.Millisecond,
			RetryOnStatus: []int{429, 502, 503, 504},
		},
	})
}

func TestListDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello/contents/src", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		_ = json.NewEncoder(w).Encode([]TreeEntry{
			{Name: "app.js", Path: "src/app.js", Type: "file", SHA: "abc"},
			{Name: "lib", Path: "src/lib", Type: "dir", SHA: "def"},
		})
	}))
	defer server.Close()

	entries, err := testClient(server.URL).ListDirectory(context.Background(), "octocat", "hello", "src", "main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "src/app.js", entries[0].Path)
	assert.Equal(t, "dir", entries[1].Type)
}

func TestGetFileContentDecodesBase64(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(contentResponse{
			Name:     "app.js",
			Path:     "src/app.js",
			SHA:      "abc123",
			Type:     "file",
			Encoding: "base64",
			// The API wraps base64 payloads with newlines.
			Content: "Y29uc29sZS5sb2co\nJ3gnKQ==",
		})
	}))
	defer server.Close()

	content, err := testClient(server.URL).GetFileContent(context.Background(), "octocat", "hello", "src/app.js", "main")
	require.NoError(t, err)
	assert.Equal(t, "console.log('x')", content.Content)
	assert.Equal(t, "abc123", content.SHA)
}

func TestGetFileContentRejectsDirectories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(contentResponse{Path: "src", Type: "dir"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetFileContent(context.Background(), "octocat", "hello", "src", "main")
	assert.Error(t, err)
}

func TestAPIErrorSurfacesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).ListDirectory(context.Background(), "octocat", "gone", "", "main")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Not Found")
}

func TestRetryOnRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode([]TreeEntry{{Name: "a.js", Path: "a.js", Type: "file"}})
	}))
	defer server.Close()

	entries, err := testClient(server.URL).ListDirectory(context.Background(), "octocat", "hello", "", "main")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	err := testClient(server.URL).CreateBranch(context.Background(), "octocat", "hello", "ai-fix-1234", "headsha")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateBranchPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octocat/hello/git/refs", r.URL.Path)

		var req createRefRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refs/heads/ai-fix-1234", req.Ref)
		assert.Equal(t, "headsha", req.SHA)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := testClient(server.URL).CreateBranch(context.Background(), "octocat", "hello", "ai-fix-1234", "headsha")
	assert.NoError(t, err)
}

func TestCommitFilePayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/repos/octocat/hello/contents/src/app.js", r.URL.Path)

		var req commitFileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "fix: AvoidConsoleLog in src/app.js", req.Message)
		assert.Equal(t, "feature", req.Branch)
		assert.Equal(t, "oldsha", req.SHA)

		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		require.NoError(t, err)
		assert.Equal(t, "logger.info('x')", string(decoded))

		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := testClient(server.URL).CommitFile(context.Background(), "octocat", "hello",
		"src/app.js", "feature", "fix: AvoidConsoleLog in src/app.js", "logger.info('x')", "oldsha")
	assert.NoError(t, err)
}

func TestCreatePullRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello/pulls", r.URL.Path)

		var req createPullRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ai-fix-1234", req.Head)
		assert.Equal(t, "main", req.Base)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"html_url":"https://github.com/octocat/hello/pull/7","number":7}`))
	}))
	defer server.Close()

	pr, err := testClient(server.URL).CreatePullRequest(context.Background(), "octocat", "hello",
		"AI code fixes (1 changes)", "body", "ai-fix-1234", "main")
	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "https://github.com/octocat/hello/pull/7", pr.URL)
}

func TestGetBranchHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ref":"refs/heads/main","object":{"sha":"deadbeef","type":"commit"}}`))
	}))
	defer server.Close()

	sha, err := testClient(server.URL).GetBranchHead(context.Background(), "octocat", "hello", "main")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", sha)
}
