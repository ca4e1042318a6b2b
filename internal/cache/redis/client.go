// Package redis caches retrieved grounding context between repeated
// questions. The cache is read-only derived data; the ingestion and dedup
// paths never consult it.
package redis

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/logger"
)

const contextTTL = 5 * time.Minute

type Client struct {
	client *redis.Client
}

func NewClient(addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("retrieval cache initialized", zap.String("addr", addr))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetContext(ctx context.Context, query string, snippets []models.Snippet) error {
	data, err := json.Marshal(snippets)
	if err != nil {
		return fmt.Errorf("failed to marshal snippets: %w", err)
	}

	if err := c.client.Set(ctx, contextKey(query), data, contextTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache context: %w", err)
	}

	logger.Debug("grounding context cached", zap.String("query", query))
	return nil
}

func (c *Client) GetContext(ctx context.Context, query string) ([]models.Snippet, bool, error) {
	data, err := c.client.Get(ctx, contextKey(query)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached context: %w", err)
	}

	var snippets []models.Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached context: %w", err)
	}

	logger.Debug("grounding context cache hit", zap.String("query", query))
	return snippets, true, nil
}

func contextKey(query string) string {
	return fmt.Sprintf("context:%x", md5.Sum([]byte(query)))
}
