package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// Generator is a single-shot, stateless text completion call. The caller
// owns prompt construction and response parsing.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client generates text through the Anthropic API
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	retry     config.AIRetryConfig
}

var _ Generator = (*Client)(nil)

// NewClient creates a new generative-model client. The API key falls back
// to the ANTHROPIC_API_KEY environment variable when not configured.
func NewClient(cfg config.AIConfig) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
		retry:     cfg.Retry,
	}, nil
}

// Generate sends one prompt and returns the concatenated text response
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var response *anthropic.Message

	err := c.retryWithBackoff(ctx, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	util.Debug("Model call: input=%d tokens, output=%d tokens",
		response.Usage.InputTokens, response.Usage.OutputTokens)

	return text, nil
}

func (c *Client) retryWithBackoff(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := c.retry.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := c.retry.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := c.retry.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	multiplier := c.retry.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	timeout := c.retry.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			util.Warn("Retrying model call (attempt %d/%d) after %v", attempt+1, maxRetries+1, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * multiplier)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}
