// Package llm wraps the generative text service behind a small completion
// API. Rate limiting surfaces as a typed error carrying the service's
// suggested wait so callers can implement their own backoff discipline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/pkg/logger"
)

// DefaultRetryAfter is used when a rate-limit response carries no usable
// wait hint.
const DefaultRetryAfter = 21 * time.Second

var retryAfterPattern = regexp.MustCompile(`after (\d+) seconds`)

// RateLimitError reports a 429 from the generative service together with
// the wait the service suggested.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %s", e.RetryAfter, e.Message)
}

type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

func NewClient(apiKey, endpoint, model string, maxTokens, timeoutSec int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}

	logger.Info("generative client initialized",
		zap.String("model", model),
		zap.Int("max_tokens", maxTokens),
	)

	return &Client{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

// Complete issues a single completion round trip. It does not retry; a 429
// returns *RateLimitError and everything else is passed through wrapped.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		if rle := asRateLimit(err); rle != nil {
			return "", rle
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}

	logger.Debug("completion generated",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

func asRateLimit(err error) *RateLimitError {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != 429 {
		return nil
	}
	return &RateLimitError{
		RetryAfter: ParseRetryAfter(apiErr.Message),
		Message:    apiErr.Message,
	}
}

// ParseRetryAfter extracts the suggested wait from a rate-limit message of
// the form "... Please retry after 17 seconds ...". Messages without a hint
// fall back to DefaultRetryAfter.
func ParseRetryAfter(message string) time.Duration {
	match := retryAfterPattern.FindStringSubmatch(message)
	if match == nil {
		return DefaultRetryAfter
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil {
		return DefaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// Sleep waits for the given duration unless the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
