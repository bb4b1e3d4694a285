package config

import "time"

// Config is the root configuration structure
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	GitHub  GitHubConfig  `yaml:"github"`
	AI      AIConfig      `yaml:"ai"`
	Scanner ScannerConfig `yaml:"scanner"`
	Store   StoreConfig   `yaml:"store"`
	Worker  WorkerConfig  `yaml:"worker"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig contains agent metadata
type AgentConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// GitHubConfig contains GitHub API connection settings
type GitHubConfig struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	RequestsPerSec int           `yaml:"requests_per_sec"`
	Retry          RetryConfig   `yaml:"retry"`
}

// RetryConfig contains retry settings for API calls
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	RetryOnStatus []int         `yaml:"retry_on_status"`
}

// AIConfig contains generative-model settings
type AIConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Retry     AIRetryConfig `yaml:"retry"`
}

// AIRetryConfig contains retry settings for model calls
type AIRetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ScannerConfig contains tree walk and scan settings
type ScannerConfig struct {
	MaxDepth      int      `yaml:"max_depth"`
	FetchWorkers  int      `yaml:"fetch_workers"`
	ExcludedDirs  []string `yaml:"excluded_dirs"`  // added to the built-in set
	ExcludedFiles []string `yaml:"excluded_files"` // glob patterns
}

// StoreConfig contains run-store settings
type StoreConfig struct {
	Backend string `yaml:"backend"` // sqlite, memory
	Path    string `yaml:"path"`
}

// WorkerConfig contains background job settings
type WorkerConfig struct {
	Workers           int           `yaml:"workers"`
	QueueSize         int           `yaml:"queue_size"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	LeaseTimeout      time.Duration `yaml:"lease_timeout"`
	ReapInterval      time.Duration `yaml:"reap_interval"`
}

// OutputConfig contains report output settings
type OutputConfig struct {
	Formats   []string `yaml:"formats"`
	OutputDir string   `yaml:"output_dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"` // text, json
	File             string `yaml:"file"`
	IncludeTimestamp bool   `yaml:"include_timestamp"`
	IncludeCaller    bool   `yaml:"include_caller"`
}
