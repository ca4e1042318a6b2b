// Package sqlite keeps a local ledger of what the session did: ingestion
// runs and answered queries. It is bookkeeping only; nothing in the
// retrieval or dedup paths depends on it.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("ledger initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingestion_log (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		built INTEGER NOT NULL,
		uploaded INTEGER NOT NULL,
		duplicates INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ingestion_kind ON ingestion_log(kind);
	CREATE INDEX IF NOT EXISTS idx_ingestion_created ON ingestion_log(created_at);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT,
		snippets INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return nil
}

func (c *Client) InsertIngestion(record *models.IngestionRecord) error {
	_, err := c.db.Exec(
		`INSERT INTO ingestion_log (id, kind, source, built, uploaded, duplicates, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Kind, record.Source, record.Built, record.Uploaded,
		record.Duplicates, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion record: %w", err)
	}
	return nil
}

func (c *Client) InsertQuery(record *models.QueryRecord) error {
	_, err := c.db.Exec(
		`INSERT INTO query_history (id, question, answer, snippets, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Question, record.Answer, record.Snippets,
		record.LatencyMS, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}
	return nil
}

func (c *Client) RecentQueries(limit int) ([]models.QueryRecord, error) {
	rows, err := c.db.Query(
		`SELECT id, question, answer, snippets, latency_ms, created_at
		 FROM query_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var record models.QueryRecord
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.Question, &record.Answer,
			&record.Snippets, &record.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		record.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}
