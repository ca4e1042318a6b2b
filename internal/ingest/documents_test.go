package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-kb/lumina/internal/qa"
	"github.com/lumina-kb/lumina/internal/storage/models"
)

func TestBuildDocuments(t *testing.T) {
	pairs := []qa.Pair{
		{Question: "What is X?", Answer: "X is a tool."},
		{Question: "Why X?", Answer: "Because."},
	}
	chunks := []string{"chunk one", "chunk two"}
	now := time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)

	idFor := func(sequence any) string {
		return fmt.Sprintf("base-%v", sequence)
	}
	docs := buildDocuments(pairs, chunks, idFor, "Deployment Guide", "https://example.com/guide", now)

	require.Len(t, docs, 4)

	// QA documents come first, numbered from zero.
	assert.Equal(t, "base-0", docs[0].ID)
	assert.Equal(t, models.DocTypeQA, docs[0].DocType)
	assert.Equal(t, "What is X?", docs[0].Title)
	assert.Equal(t, "Question: What is X?\nAnswer: X is a tool.", docs[0].Content)
	assert.Equal(t, "Deployment Guide", docs[0].PageTitle)
	assert.Equal(t, "https://example.com/guide", docs[0].FileName)
	assert.Equal(t, "2024-05-14T09:30:00Z", docs[0].UploadDate)

	assert.Equal(t, "base-1", docs[1].ID)

	// Content chunks follow with tagged sequence numbers.
	assert.Equal(t, "base-content-0", docs[2].ID)
	assert.Equal(t, models.DocTypeContent, docs[2].DocType)
	assert.Equal(t, "Deployment Guide - Content Part 1", docs[2].Title)
	assert.Equal(t, "chunk one", docs[2].Content)

	assert.Equal(t, "base-content-1", docs[3].ID)
	assert.Equal(t, "Deployment Guide - Content Part 2", docs[3].Title)
}

func TestBuildDocumentsUniqueIDsWithinBatch(t *testing.T) {
	pairs := []qa.Pair{{Question: "Q", Answer: "A"}}
	chunks := []string{"c1", "c2", "c3"}

	idFor := func(sequence any) string { return fmt.Sprintf("p-%v", sequence) }
	docs := buildDocuments(pairs, chunks, idFor, "T", "f", time.Now())

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		_, dup := seen[doc.ID]
		assert.False(t, dup, "duplicate id %s", doc.ID)
		seen[doc.ID] = struct{}{}
	}
}

func TestPartition(t *testing.T) {
	docs := []models.Document{
		{ID: "1", DocType: models.DocTypeQA},
		{ID: "2", DocType: models.DocTypeContent},
		{ID: "3", DocType: models.DocTypeQA},
	}

	qaDocs, contentDocs := partition(docs)

	require.Len(t, qaDocs, 2)
	require.Len(t, contentDocs, 1)
	assert.Equal(t, "2", contentDocs[0].ID)
}
