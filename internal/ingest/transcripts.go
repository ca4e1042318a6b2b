package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/identifier"
	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/logger"
)

const transcriptsCategory = "meeting-transcripts"

var (
	timestampPattern = regexp.MustCompile(`\d+:\d+:\d+|\d+:\d+`)
	speakerPattern   = regexp.MustCompile(`(?m)^[A-Za-z][A-Za-z0-9\s]*:`)
	spaceRuns        = regexp.MustCompile(`\s+`)
)

// CleanTranscript strips the machine noise meeting exports carry:
// timestamps, leading speaker labels, and uneven whitespace. The spoken
// words are all that should reach the index.
func CleanTranscript(raw string) string {
	cleaned := timestampPattern.ReplaceAllString(raw, "")
	cleaned = speakerPattern.ReplaceAllString(cleaned, "")
	cleaned = spaceRuns.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// IngestTranscripts processes every .txt and .vtt file under dir: clean,
// chunk, rewrite each chunk into prose, and upsert the results into the
// transcripts index. Chunks the rewrite step cannot improve keep their
// cleaned text; chunks that come back empty are skipped.
func (i *Ingestor) IngestTranscripts(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read transcripts folder %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".txt" || ext == ".vtt" {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no transcript files found in %s", dir)
	}

	indexName := identifier.IndexName(transcriptsCategory)

	for _, name := range files {
		docs, err := i.transcriptDocuments(ctx, dir, name)
		if err != nil {
			logger.Warn("skipping unreadable transcript", zap.String("file", name), zap.Error(err))
			continue
		}
		if len(docs) == 0 {
			logger.Warn("transcript produced no usable chunks", zap.String("file", name))
			continue
		}

		if err := i.upsert(ctx, indexName, KindTranscript, name, docs); err != nil {
			return fmt.Errorf("failed to upsert transcript %s: %w", name, err)
		}
	}

	return nil
}

func (i *Ingestor) transcriptDocuments(ctx context.Context, dir, name string) ([]models.Document, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}

	cleaned := CleanTranscript(string(raw))
	if cleaned == "" {
		return nil, nil
	}

	uploadDate := i.now().UTC().Format(time.RFC3339)
	chunks := i.splitContent(cleaned)

	var docs []models.Document
	for idx, chunk := range chunks {
		improved := i.enhancer.Enhance(ctx, chunk, name)
		if strings.TrimSpace(improved) == "" {
			logger.Warn("dropping empty transcript chunk",
				zap.String("file", name), zap.Int("chunk", idx))
			continue
		}

		docs = append(docs, models.Document{
			ID:         identifier.DocumentID(name, idx),
			DocType:    models.DocTypeTranscript,
			PageTitle:  name,
			Title:      fmt.Sprintf("%s - Part %d", name, idx+1),
			Content:    improved,
			FileName:   name,
			UploadDate: uploadDate,
		})
	}

	return docs, nil
}
