// Package search talks to the hosted document search service: index
// lifecycle, document upload, the dedup upsert protocol, and the semantic
// query path used for grounding.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/circuitbreaker"
	"github.com/lumina-kb/lumina/pkg/logger"
)

// existingIDsPageSize bounds the id enumeration used by the upsert filter.
const existingIDsPageSize = 1000

// ErrIndexNotFound is returned by Query when the target index is not
// provisioned.
var ErrIndexNotFound = errors.New("index not found")

type Client struct {
	endpoint   string
	adminKey   string
	apiVersion string
	topK       int
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
}

func NewClient(endpoint, adminKey, apiVersion string, topK int) *Client {
	return &Client{
		endpoint:   endpoint,
		adminKey:   adminKey,
		apiVersion: apiVersion,
		topK:       topK,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: circuitbreaker.New("search", circuitbreaker.Config{
			MaxRequests:      5,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger.Log,
		}),
	}
}

func (c *Client) indexURL(name string) string {
	return fmt.Sprintf("%s/indexes/%s?api-version=%s", c.endpoint, url.PathEscape(name), c.apiVersion)
}

func (c *Client) docsURL(name, op string) string {
	return fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s", c.endpoint, url.PathEscape(name), op, c.apiVersion)
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.adminKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("search service request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// ListIndexes enumerates all indices currently provisioned.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	listURL := fmt.Sprintf("%s/indexes?api-version=%s", c.endpoint, c.apiVersion)
	status, body, err := c.do(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list indexes returned status %d", status)
	}

	var parsed struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse index list: %w", err)
	}

	names := make([]string, 0, len(parsed.Value))
	for _, idx := range parsed.Value {
		names = append(names, idx.Name)
	}
	return names, nil
}

// IndexExists reports whether the named index is provisioned.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	status, _, err := c.do(ctx, http.MethodGet, c.indexURL(name), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("index lookup returned status %d", status)
	}
}

// CreateOrReplaceIndex deletes any index of that name, then creates it fresh
// with the fixed schema. Absence on delete is not an error. This is only
// used on first creation of a name, never to refresh a populated index.
func (c *Client) CreateOrReplaceIndex(ctx context.Context, name string) error {
	status, _, err := c.do(ctx, http.MethodDelete, c.indexURL(name), nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNoContent {
		logger.Info("deleted existing index", zap.String("index", name))
	}

	status, body, err := c.do(ctx, http.MethodPut, c.indexURL(name), newIndexDefinition(name))
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("create index %q returned status %d: %s", name, status, body)
	}

	logger.Info("created index with semantic configuration", zap.String("index", name))
	return nil
}

type uploadDoc struct {
	models.Document
	Action string `json:"@search.action"`
}

// Upload appends a batch of documents. The index must already exist.
func (c *Client) Upload(ctx context.Context, name string, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := struct {
		Value []uploadDoc `json:"value"`
	}{Value: make([]uploadDoc, 0, len(docs))}
	for _, doc := range docs {
		batch.Value = append(batch.Value, uploadDoc{Document: doc, Action: "upload"})
	}

	status, body, err := c.do(ctx, http.MethodPost, c.docsURL(name, "index"), batch)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusMultiStatus {
		return fmt.Errorf("upload to index %q returned status %d: %s", name, status, body)
	}

	logger.Info("uploaded documents",
		zap.String("index", name),
		zap.Int("count", len(docs)),
	)
	return nil
}

// ExistingIDs returns the ids currently present in the index, bounded by the
// enumeration page size. A fetch failure degrades to an empty set with a
// warning; it never aborts the caller.
func (c *Client) ExistingIDs(ctx context.Context, name string) map[string]struct{} {
	payload := map[string]any{
		"search": "*",
		"select": "id",
		"top":    existingIDsPageSize,
	}

	ids := make(map[string]struct{})

	status, body, err := c.do(ctx, http.MethodPost, c.docsURL(name, "search"), payload)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("id enumeration returned status %d", status)
	}
	if err != nil {
		logger.Warn("could not fetch existing ids",
			zap.String("index", name),
			zap.Error(err),
		)
		return ids
	}

	var parsed struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warn("could not parse existing ids",
			zap.String("index", name),
			zap.Error(err),
		)
		return ids
	}

	for _, doc := range parsed.Value {
		ids[doc.ID] = struct{}{}
	}
	return ids
}

// UpsertResult reports what one upsert run did.
type UpsertResult struct {
	Uploaded   int
	Duplicates int
	Created    bool
}

// Upsert deduplicates and uploads a candidate batch. When the index exists,
// candidates whose id is already present are filtered out and only the
// remainder is uploaded; when it does not, the index is created and the full
// batch is uploaded. Because ids are deterministic, re-running ingestion
// over the same source uploads nothing new.
func (c *Client) Upsert(ctx context.Context, name string, docs []models.Document) (UpsertResult, error) {
	exists, err := c.IndexExists(ctx, name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert precheck failed for %q: %w", name, err)
	}

	if !exists {
		logger.Info("index does not exist, creating", zap.String("index", name))
		if err := c.CreateOrReplaceIndex(ctx, name); err != nil {
			return UpsertResult{}, err
		}
		if err := c.Upload(ctx, name, docs); err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{Uploaded: len(docs), Created: true}, nil
	}

	existing := c.ExistingIDs(ctx, name)

	fresh := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if _, dup := existing[doc.ID]; !dup {
			fresh = append(fresh, doc)
		}
	}

	result := UpsertResult{Uploaded: len(fresh), Duplicates: len(docs) - len(fresh)}
	logger.Info("upsert filtered duplicates",
		zap.String("index", name),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("fresh", result.Uploaded),
	)

	if len(fresh) == 0 {
		return result, nil
	}
	if err := c.Upload(ctx, name, fresh); err != nil {
		return UpsertResult{}, err
	}
	return result, nil
}

// Query runs a semantic search over one index, returning the top hits with
// title and content as the searchable surface.
func (c *Client) Query(ctx context.Context, name, query string) ([]models.Snippet, error) {
	payload := map[string]any{
		"search":                query,
		"queryType":             "semantic",
		"semanticConfiguration": "default",
		"top":                   c.topK,
		"searchFields":          "title,content",
	}

	var parsed struct {
		Value []struct {
			DocType string `json:"doc_type"`
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"value"`
	}

	err := c.breaker.Execute(ctx, func() error {
		status, body, err := c.do(ctx, http.MethodPost, c.docsURL(name, "search"), payload)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			return fmt.Errorf("query on index %q: %w", name, ErrIndexNotFound)
		}
		if status != http.StatusOK {
			return fmt.Errorf("query on index %q returned status %d", name, status)
		}
		return json.Unmarshal(body, &parsed)
	})
	if err != nil {
		return nil, err
	}

	snippets := make([]models.Snippet, 0, len(parsed.Value))
	for _, hit := range parsed.Value {
		if hit.Content == "" {
			continue
		}
		docType := hit.DocType
		if docType == "" {
			docType = "unknown"
		}
		title := hit.Title
		if title == "" {
			title = "No Title"
		}
		snippets = append(snippets, models.Snippet{
			Index:   name,
			DocType: docType,
			Title:   title,
			Content: hit.Content,
		})
	}
	return snippets, nil
}
