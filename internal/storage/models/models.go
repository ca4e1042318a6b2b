package models

import "time"

// Document type discriminators, stored in the doc_type field.
const (
	DocTypeQA         = "qa"
	DocTypeContent    = "content"
	DocTypeTranscript = "transcript_chunk"
)

// Document is the unit of storage in the search service. The field set and
// JSON names are fixed: an existing index is only compatible with documents
// shaped exactly like this.
type Document struct {
	ID         string `json:"id"`
	DocType    string `json:"doc_type"`
	PageTitle  string `json:"page_title"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	FileName   string `json:"file_name"`
	UploadDate string `json:"upload_date"`
}

// Snippet is one retrieved search hit used as grounding context.
type Snippet struct {
	Index   string
	DocType string
	Title   string
	Content string
}

// Exchange is one user/assistant turn of the conversation.
type Exchange struct {
	User      string
	Assistant string
}

// IngestionRecord logs one ingestion run in the local ledger.
type IngestionRecord struct {
	ID         string
	Kind       string
	Source     string
	Built      int
	Uploaded   int
	Duplicates int
	CreatedAt  time.Time
}

// QueryRecord logs one answered question in the local ledger.
type QueryRecord struct {
	ID        string
	Question  string
	Answer    string
	Snippets  int
	LatencyMS int
	CreatedAt time.Time
}
