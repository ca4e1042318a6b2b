package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/extract"
	"github.com/lumina-kb/lumina/internal/identifier"
	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/logger"
)

// browserUserAgent avoids the naive-bot blocks some documentation hosts
// put in front of their pages.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// IngestLinksFile reads one URL per line from path and ingests them all.
// Blank lines and lines that are not http(s) URLs are skipped.
func (i *Ingestor) IngestLinksFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read links file %s: %w", path, err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}

	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", path)
	}

	return i.IngestLinks(ctx, urls)
}

// IngestLinks scrapes each URL, synthesizes QA pairs from its main
// content, chunks the content, and upserts the accumulated batches. QA
// documents and content documents land in separate per-category indexes.
// A page that cannot be fetched or yields no content is skipped with a
// warning rather than aborting the run.
func (i *Ingestor) IngestLinks(ctx context.Context, urls []string) error {
	var qaDocs, contentDocs []models.Document

	for _, url := range urls {
		page, err := i.fetchPage(ctx, url)
		if err != nil {
			logger.Warn("skipping unreachable link", zap.String("url", url), zap.Error(err))
			continue
		}

		pageTitle := extract.Title(page)
		mainContent := extract.MainContent(page)
		if strings.TrimSpace(mainContent) == "" {
			logger.Warn("skipping link with no extractable content", zap.String("url", url))
			continue
		}

		pairs := i.synth.Synthesize(ctx, mainContent, url)
		chunks := i.splitContent(mainContent)

		idFor := func(sequence any) string {
			return identifier.DocumentID(url, sequence)
		}
		docs := buildDocuments(pairs, chunks, idFor, pageTitle, url, i.now())

		pageQA, pageContent := partition(docs)
		qaDocs = append(qaDocs, pageQA...)
		contentDocs = append(contentDocs, pageContent...)

		logger.Info("page processed",
			zap.String("url", url),
			zap.String("title", pageTitle),
			zap.Int("qa_pairs", len(pairs)),
			zap.Int("content_chunks", len(chunks)))
	}

	if len(qaDocs) == 0 && len(contentDocs) == 0 {
		return fmt.Errorf("no documents produced from %d link(s)", len(urls))
	}

	source := fmt.Sprintf("%d link(s)", len(urls))
	if err := i.upsert(ctx, identifier.IndexName("qa"), KindLink, source, qaDocs); err != nil {
		return fmt.Errorf("failed to upsert qa documents: %w", err)
	}
	if err := i.upsert(ctx, identifier.IndexName("content"), KindLink, source, contentDocs); err != nil {
		return fmt.Errorf("failed to upsert content documents: %w", err)
	}

	return nil
}

func (i *Ingestor) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching page", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	return string(body), nil
}
