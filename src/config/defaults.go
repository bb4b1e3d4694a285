package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:        "ai-code-fixer",
			Version:     "1.0.0",
			Description: "Repository scanning and AI fix agent",
		},
		GitHub: GitHubConfig{
			APIBaseURL:     "https://api.github.com",
			Token:          os.Getenv("GITHUB_TOKEN"),
			Timeout:        30 * time.Second,
			RequestsPerSec: 10,
			Retry: RetryConfig{
				MaxAttempts:   3,
				BackoffFactor: 1.5,
				InitialDelay:  100 * time.Millisecond,
				MaxDelay:      5 * time.Second,
				RetryOnStatus: []int{429, 502, 503, 504},
			},
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 8192,
			Retry: AIRetryConfig{
				MaxRetries:        3,
				InitialBackoff:    1 * time.Second,
				MaxBackoff:        30 * time.Second,
				BackoffMultiplier: 2.0,
				Timeout:           120 * time.Second,
			},
		},
		Scanner: ScannerConfig{
			MaxDepth:     5,
			FetchWorkers: 4,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    filepath.Join(os.Getenv("HOME"), ".ai-code-fixer", "runs.db"),
		},
		Worker: WorkerConfig{
			Workers:           2,
			QueueSize:         16,
			HeartbeatInterval: 15 * time.Second,
			LeaseTimeout:      10 * time.Minute,
			ReapInterval:      1 * time.Minute,
		},
		Output: OutputConfig{
			Formats:   []string{"json"},
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "text",
			IncludeTimestamp: true,
			IncludeCaller:    false,
		},
	}
}
