// Package chat runs the question-answering side of the console: intent
// classification, context retrieval across every knowledge index, and
// grounded answer generation with per-session history.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/cache/redis"
	"github.com/lumina-kb/lumina/internal/llm"
	"github.com/lumina-kb/lumina/internal/metrics"
	"github.com/lumina-kb/lumina/internal/search"
	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/internal/storage/sqlite"
	"github.com/lumina-kb/lumina/pkg/logger"
)

const answerSystemPrompt = "You are an AI assistant. Use the provided context as your primary guide. Do not invent details if the context is insufficient."

const fallbackAnswer = "I'm sorry, I couldn't find an exact answer based on the available information."

// Generator is the completion surface the session needs from the
// generative service.
type Generator interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

type Session struct {
	// ID prefixes the document ids of knowledge stored from this session.
	ID string

	gen      Generator
	gateway  *search.Client
	indexes  *search.IndexCache
	contexts *redis.Client
	ledger   *sqlite.Client

	history []models.Exchange
	now     func() time.Time
}

// NewSession starts a fresh console session. The context cache and
// ledger are optional; pass nil to run without them.
func NewSession(gen Generator, gateway *search.Client, indexes *search.IndexCache, contexts *redis.Client, ledger *sqlite.Client) *Session {
	return &Session{
		ID:       fmt.Sprintf("console-session-%s", uuid.New().String()),
		gen:      gen,
		gateway:  gateway,
		indexes:  indexes,
		contexts: contexts,
		ledger:   ledger,
		now:      time.Now,
	}
}

// History returns the exchanges so far, oldest first.
func (s *Session) History() []models.Exchange {
	return s.history
}

// HistoryText renders the session transcript for prompts and feedback
// uploads.
func (s *Session) HistoryText() string {
	var sb strings.Builder
	for _, exchange := range s.history {
		fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", exchange.User, exchange.Assistant)
	}
	return sb.String()
}

// Respond answers one question: gather grounding snippets from every
// known index, build the grounded prompt, and call the generative
// service. The exchange is appended to history on success.
func (s *Session) Respond(ctx context.Context, question string) (string, error) {
	start := s.now()

	snippets := s.retrieve(ctx, question)
	answer, err := s.gen.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: answerSystemPrompt,
		UserPrompt:   s.buildPrompt(question, snippets),
	})
	if err != nil {
		metrics.QueriesAnswered.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = fallbackAnswer
	}

	s.history = append(s.history, models.Exchange{User: question, Assistant: answer})

	elapsed := s.now().Sub(start)
	metrics.QueriesAnswered.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())

	if s.ledger != nil {
		record := &models.QueryRecord{
			ID:        uuid.New().String(),
			Question:  question,
			Answer:    answer,
			Snippets:  len(snippets),
			LatencyMS: int(elapsed.Milliseconds()),
			CreatedAt: s.now(),
		}
		if err := s.ledger.InsertQuery(record); err != nil {
			logger.Warn("failed to record query in ledger", zap.Error(err))
		}
	}

	return answer, nil
}

// retrieve fans the question out across every index the service knows
// about. Retrieval failures degrade to fewer snippets, never to an error;
// the assistant can still answer from history.
func (s *Session) retrieve(ctx context.Context, question string) []models.Snippet {
	if s.contexts != nil {
		cached, hit, err := s.contexts.GetContext(ctx, question)
		if err != nil {
			logger.Warn("context cache lookup failed", zap.Error(err))
		} else if hit {
			return cached
		}
	}

	if _, err := s.indexes.Refresh(ctx); err != nil {
		logger.Warn("failed to refresh index list", zap.Error(err))
	}

	var snippets []models.Snippet
	for _, name := range s.indexes.Names() {
		results, err := s.gateway.Query(ctx, name, question)
		if err != nil {
			logger.Warn("index query failed", zap.String("index", name), zap.Error(err))
			continue
		}
		snippets = append(snippets, results...)
	}

	if s.contexts != nil && len(snippets) > 0 {
		if err := s.contexts.SetContext(ctx, question, snippets); err != nil {
			logger.Warn("failed to cache grounding context", zap.Error(err))
		}
	}

	return snippets
}

func (s *Session) buildPrompt(question string, snippets []models.Snippet) string {
	var contextText strings.Builder
	for _, snippet := range snippets {
		fmt.Fprintf(&contextText, "[%s][%s] %s: %s\n",
			snippet.Index, snippet.DocType, snippet.Title, snippet.Content)
	}

	return fmt.Sprintf(
		"Your name is Lumina. You are a technical knowledge assistant for an engineering team.\n"+
			"Answer the question below using ONLY the provided context and contextually relevant parts of the provided Conversation History. Do not invent or guess information.\n\n"+
			"Follow these formatting rules:\n"+
			"Keep specific names of tables, commands, build/version labels, and UI labels as they appear in the context.\n"+
			"Generalize or replace tenant names, GUIDs, IDs, email addresses, and anything user/environment-specific with placeholder text.\n"+
			"Do not hallucinate acronyms, make up context, or make up something in general if you're not confident.\n"+
			"If you absolutely cannot find the answer from context, respond with: %q\n\n"+
			"Context:\n%s\n\nConversation History:\n%s\n\nQuestion:\n%s",
		fallbackAnswer, contextText.String(), s.HistoryText(), question)
}
