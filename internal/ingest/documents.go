package ingest

import (
	"fmt"
	"time"

	"github.com/lumina-kb/lumina/internal/chunker"
	"github.com/lumina-kb/lumina/internal/qa"
	"github.com/lumina-kb/lumina/internal/storage/models"
)

// docIDFunc maps a sequence (int or tagged string) to a document id. Each
// pipeline supplies its own: scraped pages slug the source URL, while
// conversation documents keep the raw session id as prefix.
type docIDFunc func(sequence any) string

// buildDocuments assembles the storable batch for one source: QA documents
// first, numbered from zero, then content-chunk documents tagged
// "content-<n>". Within one batch every id is unique.
func buildDocuments(pairs []qa.Pair, chunks []string, idFor docIDFunc, pageTitle, fileName string, now time.Time) []models.Document {
	uploadDate := now.UTC().Format(time.RFC3339)
	docs := make([]models.Document, 0, len(pairs)+len(chunks))

	seq := 0
	for _, pair := range pairs {
		docs = append(docs, models.Document{
			ID:         idFor(seq),
			DocType:    models.DocTypeQA,
			PageTitle:  pageTitle,
			Title:      pair.Question,
			Content:    fmt.Sprintf("Question: %s\nAnswer: %s", pair.Question, pair.Answer),
			FileName:   fileName,
			UploadDate: uploadDate,
		})
		seq++
	}

	for idx, chunk := range chunks {
		docs = append(docs, models.Document{
			ID:         idFor(fmt.Sprintf("content-%d", idx)),
			DocType:    models.DocTypeContent,
			PageTitle:  pageTitle,
			Title:      fmt.Sprintf("%s - Content Part %d", pageTitle, idx+1),
			Content:    chunk,
			FileName:   fileName,
			UploadDate: uploadDate,
		})
	}

	return docs
}

// splitContent applies the configured chunking window.
func (i *Ingestor) splitContent(text string) []string {
	size := i.chunkSize
	if size <= 0 {
		size = chunker.DefaultChunkSize
	}
	overlap := i.overlap
	if overlap < 0 || overlap >= size {
		overlap = chunker.DefaultOverlap
	}
	return chunker.Split(text, size, overlap)
}
