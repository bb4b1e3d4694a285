package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// Provider is the source-host surface the scanner and fix pipeline need.
// Every call may fail with a provider error; callers decide which failures
// are fatal for a run.
type Provider interface {
	ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]TreeEntry, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error)
	GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, owner, repo, name, fromSHA string) error
	CommitFile(ctx context.Context, owner, repo, path, branch, message, content, sha string) error
	CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*PullRequest, error)
}

// Client provides access to the GitHub REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryConf  config.RetryConfig
	limiter    *rate.Limiter
}

var _ Provider = (*Client)(nil)

// NewClient creates a new GitHub client
func NewClient(cfg config.GitHubConfig) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec)
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryConf: cfg.Retry,
		limiter:   limiter,
	}
}

// ListDirectory lists one level of the repository tree at path
func (c *Client) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]TreeEntry, error) {
	util.Debug("Listing %s/%s:%s (ref: %s)", owner, repo, path, ref)

	var entries []TreeEntry
	if err := c.do(ctx, http.MethodGet, c.contentsURL(owner, repo, path, ref), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFileContent fetches one file and decodes its content
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	util.Debug("Fetching %s/%s:%s (ref: %s)", owner, repo, path, ref)

	var resp contentResponse
	if err := c.do(ctx, http.MethodGet, c.contentsURL(owner, repo, path, ref), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Type != "" && resp.Type != "file" {
		return nil, fmt.Errorf("%s is not a file (type: %s)", path, resp.Type)
	}

	content := resp.Content
	if resp.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decoding content of %s: %w", path, err)
		}
		content = string(decoded)
	}

	return &FileContent{Path: resp.Path, Content: content, SHA: resp.SHA}, nil
}

// GetBranchHead returns the commit SHA a branch points at
func (c *Client) GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	var resp refResponse
	path := fmt.Sprintf("/repos/%s/%s/git/ref/%s", owner, repo, url.PathEscape("heads/"+branch))
	if err := c.do(ctx, http.MethodGet, c.baseURL+path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Object.SHA, nil
}

// CreateBranch creates a branch ref pointing at fromSHA
func (c *Client) CreateBranch(ctx context.Context, owner, repo, name, fromSHA string) error {
	util.Debug("Creating branch %s in %s/%s from %s", name, owner, repo, fromSHA)

	req := createRefRequest{Ref: "refs/heads/" + name, SHA: fromSHA}
	path := fmt.Sprintf("/repos/%s/%s/git/refs", owner, repo)
	return c.do(ctx, http.MethodPost, c.baseURL+path, req, nil)
}

// CommitFile commits new content for one file on a branch. sha is the blob
// SHA of the version being replaced and acts as the update precondition.
func (c *Client) CommitFile(ctx context.Context, owner, repo, path, branch, message, content, sha string) error {
	util.Debug("Committing %s to %s/%s@%s", path, owner, repo, branch)

	req := commitFileRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     sha,
		Branch:  branch,
	}
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	return c.do(ctx, http.MethodPut, c.baseURL+apiPath, req, nil)
}

// CreatePullRequest opens a pull request from head into base
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*PullRequest, error) {
	util.Debug("Opening pull request %s -> %s in %s/%s", head, base, owner, repo)

	req := createPullRequest{Title: title, Body: body, Head: head, Base: base}
	var resp PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	if err := c.do(ctx, http.MethodPost, c.baseURL+path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) contentsURL(owner, repo, path, ref string) string {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, escapePath(path))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}
	return u
}

// escapePath escapes each path segment while keeping separators
func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.retryConf.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			util.Warn("Retrying %s %s (attempt %d/%d) after %v", method, rawURL, attempt+1, c.retryConf.MaxAttempts, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doOnce(ctx, method, rawURL, body, result)
		if err == nil {
			return nil
		}

		lastErr = err
		if !c.shouldRetry(err) {
			break
		}
	}

	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, rawURL string, body, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConf.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= c.retryConf.BackoffFactor
	}
	if delay > float64(c.retryConf.MaxDelay) {
		delay = float64(c.retryConf.MaxDelay)
	}
	return time.Duration(delay)
}

func (c *Client) shouldRetry(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		for _, code := range c.retryConf.RetryOnStatus {
			if apiErr.StatusCode == code {
				return true
			}
		}
	}
	return false
}

// APIError represents an error response from the GitHub API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Body)
}
