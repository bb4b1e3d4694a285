package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
github:
  token: file-token
  timeout: 45s
scanner:
  max_depth: 3
  excluded_dirs:
    - vendor
store:
  backend: memory
worker:
  workers: 4
`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.GitHub.Token)
	assert.Equal(t, 45*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, 3, cfg.Scanner.MaxDepth)
	assert.Equal(t, []string{"vendor"}, cfg.Scanner.ExcludedDirs)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 4, cfg.Worker.Workers)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.NotZero(t, cfg.AI.MaxTokens)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "env-token")
	os.Unsetenv("TEST_MISSING_MODEL")

	path := writeConfig(t, `
github:
  token: ${TEST_GH_TOKEN}
ai:
  model: ${TEST_MISSING_MODEL:-fallback-model}
  api_key: ${TEST_MISSING_KEY}
`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "fallback-model", cfg.AI.Model)
	assert.Equal(t, "", cfg.AI.APIKey)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAMLFails(t *testing.T) {
	path := writeConfig(t, "github: [not: a: mapping")
	_, err := NewLoader().Load(path)
	assert.Error(t, err)
}

func TestDefaultConfigSane(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Greater(t, cfg.GitHub.Retry.MaxAttempts, 0)
	assert.Contains(t, cfg.GitHub.Retry.RetryOnStatus, 429)
	assert.Greater(t, cfg.Scanner.MaxDepth, 0)
	assert.Greater(t, cfg.Scanner.FetchWorkers, 0)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Greater(t, cfg.Worker.Workers, 0)
	assert.Greater(t, cfg.Worker.LeaseTimeout, cfg.Worker.HeartbeatInterval)
}
