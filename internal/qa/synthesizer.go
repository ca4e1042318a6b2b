// Package qa turns text chunks into question/answer pairs using the
// generative text service.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/llm"
	"github.com/lumina-kb/lumina/internal/metrics"
	"github.com/lumina-kb/lumina/pkg/logger"
)

const systemPrompt = "You are an AI assistant that generates detailed Q&A pairs from provided content."

// Pair is one synthesized question/answer item. Question and Answer are
// always non-empty and whitespace-normalized.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Generator is the completion surface the synthesizer needs.
type Generator interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

type Synthesizer struct {
	gen        Generator
	maxRetries int
}

func NewSynthesizer(gen Generator) *Synthesizer {
	return &Synthesizer{gen: gen, maxRetries: 3}
}

// Synthesize asks the generative service for question/answer pairs covering
// the chunk. Rate limiting is waited out and retried up to the retry budget;
// any other failure, including unparseable output, degrades to an empty
// result. It never returns an error to the caller.
func (s *Synthesizer) Synthesize(ctx context.Context, textChunk, identifier string) []Pair {
	targetMin, targetMax := targetRange(len(textChunk))

	prompt := fmt.Sprintf(
		"Based solely on the **Content** provided below (ignore navigation menus, headers, footers, sidebars, and extraneous UI elements), "+
			"generate between %d and %d highly relevant question-answer pairs. Ensure coverage of all key topics and sections presented in the content. "+
			"Each Q&A pair must be specific and accurate. If the text does not provide a clear, definitive answer, skip generating that pair. "+
			"Replace any user-specific details (such as IDs, GUIDs, or personal information) with placeholders. "+
			"Return your answer in JSON format as a list of objects, each with a 'question' field and an 'answer' field.\n\nContent:\n%s",
		targetMin, targetMax, textChunk,
	)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		content, err := s.gen.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserPrompt:   prompt,
		})

		var rateLimited *llm.RateLimitError
		if errors.As(err, &rateLimited) {
			metrics.RateLimitWaits.Inc()
			logger.Warn("rate limited during QA synthesis",
				zap.String("identifier", identifier),
				zap.Duration("wait", rateLimited.RetryAfter),
				zap.Int("attempt", attempt+1),
			)
			if err := llm.Sleep(ctx, rateLimited.RetryAfter); err != nil {
				return nil
			}
			continue
		}
		if err != nil {
			logger.Error("QA synthesis request failed",
				zap.String("identifier", identifier),
				zap.Error(err),
			)
			return nil
		}

		raw, ok := decodePairs(content)
		if !ok {
			logger.Warn("QA response not parseable as a list of objects",
				zap.String("identifier", identifier),
			)
			return nil
		}
		pairs := sanitizePairs(raw)
		metrics.QAPairsProduced.Add(float64(len(pairs)))
		return pairs
	}

	logger.Warn("max retries reached for QA synthesis", zap.String("identifier", identifier))
	return nil
}

// targetRange scales the requested pair count with input length. The bound
// is an instruction to the generator, not enforced on the result.
func targetRange(textLen int) (int, int) {
	min := textLen / 1000 * 2
	if min < 10 {
		min = 10
	}
	return min, min + 10
}

// sanitizePairs keeps only items with non-empty string question and answer
// fields, collapsing internal whitespace.
func sanitizePairs(raw []map[string]any) []Pair {
	pairs := make([]Pair, 0, len(raw))
	for _, item := range raw {
		question := collapse(item["question"])
		answer := collapse(item["answer"])
		if question == "" || answer == "" {
			continue
		}
		pairs = append(pairs, Pair{Question: question, Answer: answer})
	}
	return pairs
}

func collapse(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}
