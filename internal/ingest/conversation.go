package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumina-kb/lumina/internal/identifier"
)

const manualKnowledgeCategory = "manual-knowledge-1"

// IngestConversation stores text captured in the console as searchable
// knowledge. Document ids keep the raw session id as prefix so repeated
// saves within one session collide on the upsert filter instead of
// accumulating copies.
func (i *Ingestor) IngestConversation(ctx context.Context, sessionID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("nothing to store")
	}

	pairs := i.synth.Synthesize(ctx, text, sessionID)
	if len(pairs) == 0 {
		return fmt.Errorf("no QA pairs could be generated from the conversation")
	}

	chunks := i.splitContent(text)
	idFor := func(sequence any) string {
		return fmt.Sprintf("%s-%v", sessionID, sequence)
	}
	docs := buildDocuments(pairs, chunks, idFor,
		fmt.Sprintf("Conversation %s", sessionID),
		fmt.Sprintf("conversation-%s", sessionID), i.now())

	indexName := identifier.IndexName(manualKnowledgeCategory)
	qaDocs, contentDocs := partition(docs)

	if err := i.upsert(ctx, indexName, KindConversation, sessionID, qaDocs); err != nil {
		return fmt.Errorf("failed to store conversation knowledge: %w", err)
	}
	if err := i.upsert(ctx, indexName, KindConversation, sessionID, contentDocs); err != nil {
		return fmt.Errorf("failed to store conversation content: %w", err)
	}

	return nil
}
