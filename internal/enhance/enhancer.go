// Package enhance cleans up transcript text through the generative text
// service: grammar, punctuation, and removal of conversational filler.
package enhance

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/llm"
	"github.com/lumina-kb/lumina/internal/metrics"
	"github.com/lumina-kb/lumina/pkg/logger"
)

const systemPrompt = "You are an assistant that cleans up text."

const promptPrefix = "You are an AI assistant that improves text by correcting grammar, punctuation, and filling in missing words based on context, " +
	"without altering the original meaning. Remove any side conversations or filler talk such as the friendly banter at the beginning and end of every meeting. " +
	"Improve the following text and return the result as plain text:\n\n"

// Generator is the completion surface the enhancer needs.
type Generator interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

type Enhancer struct {
	gen        Generator
	maxRetries int
}

func New(gen Generator) *Enhancer {
	return &Enhancer{gen: gen, maxRetries: 3}
}

// Enhance returns the cleaned text. Rate limiting is waited out; any other
// failure is retried. When the retry budget is exhausted the original input
// comes back unmodified, so callers never lose content.
func (e *Enhancer) Enhance(ctx context.Context, text, identifier string) string {
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		improved, err := e.gen.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   promptPrefix + text,
		})
		if err == nil {
			return strings.TrimSpace(improved)
		}

		var rateLimited *llm.RateLimitError
		if errors.As(err, &rateLimited) {
			metrics.RateLimitWaits.Inc()
			logger.Warn("rate limited during text enhancement",
				zap.String("identifier", identifier),
				zap.Duration("wait", rateLimited.RetryAfter),
				zap.Int("attempt", attempt+1),
			)
			if err := llm.Sleep(ctx, rateLimited.RetryAfter); err != nil {
				return text
			}
			continue
		}

		logger.Warn("text enhancement failed",
			zap.String("identifier", identifier),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
		)
	}

	logger.Warn("max retries reached for text enhancement, keeping original",
		zap.String("identifier", identifier),
	)
	return text
}
