// Package feedback persists user reactions: a singleton thumbs-up/down
// counter mutated under optimistic concurrency, and write-once records of
// free-text feedback.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-kb/lumina/internal/metrics"
	"github.com/lumina-kb/lumina/internal/objectstore"
	"github.com/lumina-kb/lumina/internal/storage/models"
	"github.com/lumina-kb/lumina/pkg/logger"
	"github.com/lumina-kb/lumina/pkg/retry"
)

// statsKey names the singleton counter blob. Multiple sessions update it
// concurrently, so every write is guarded by the version tag read with it.
const statsKey = "feedback-reaction-stats.json"

const (
	casAttempts = 3
	casDelay    = 300 * time.Millisecond
)

type Kind string

const (
	Positive Kind = "positive"
	Negative Kind = "negative"
)

// Stats is the persisted counter blob.
type Stats struct {
	ThumbsUp    int    `json:"thumbs_up"`
	ThumbsDown  int    `json:"thumbs_down"`
	LastUpdated string `json:"last_updated"`
}

type writtenRecord struct {
	Timestamp string     `json:"timestamp"`
	Type      string     `json:"type"`
	Feedback  string     `json:"feedback"`
	History   []exchange `json:"history"`
}

type exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Aggregator struct {
	store objectstore.Store
	now   func() time.Time
}

func New(store objectstore.Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// RecordReaction increments the matching counter via read-modify-write
// guarded by the blob's version tag. A concurrent modification triggers a
// re-read and retry; when the retry budget runs out the update is dropped
// with a warning rather than failing the session.
func (a *Aggregator) RecordReaction(ctx context.Context, kind Kind) error {
	if kind != Positive && kind != Negative {
		return fmt.Errorf("unknown reaction kind %q", kind)
	}

	cfg := retry.FixedDelay(casAttempts, casDelay, objectstore.ErrPreconditionFailed)
	cfg.Logger = logger.Log

	err := retry.Do(ctx, cfg, func() error {
		return a.applyReaction(ctx, kind)
	})
	if errors.Is(err, objectstore.ErrPreconditionFailed) {
		metrics.FeedbackDropped.Inc()
		logger.Warn("feedback update dropped after concurrent modifications",
			zap.String("kind", string(kind)),
			zap.Int("attempts", casAttempts),
		)
		return nil
	}
	if err == nil {
		metrics.FeedbackRecorded.WithLabelValues(string(kind)).Inc()
	}
	return err
}

func (a *Aggregator) applyReaction(ctx context.Context, kind Kind) error {
	var stats Stats
	etag := ""

	obj, err := a.store.Get(ctx, statsKey)
	switch {
	case errors.Is(err, objectstore.ErrNotFound):
		// First reaction ever: start from zero with no version tag.
	case err != nil:
		return fmt.Errorf("failed to read feedback stats: %w", err)
	default:
		if err := json.Unmarshal(obj.Data, &stats); err != nil {
			return fmt.Errorf("feedback stats blob is corrupt: %w", err)
		}
		etag = obj.ETag
	}

	if kind == Positive {
		stats.ThumbsUp++
	} else {
		stats.ThumbsDown++
	}
	stats.LastUpdated = a.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feedback stats: %w", err)
	}

	if etag == "" {
		return a.store.PutIfAbsent(ctx, statsKey, data)
	}
	return a.store.PutIfMatch(ctx, statsKey, data, etag)
}

// RecordWritten stores free-text feedback as a new timestamped record. Each
// write targets a unique key, so no concurrency guard is needed.
func (a *Aggregator) RecordWritten(ctx context.Context, text string, history []models.Exchange) error {
	timestamp := a.now().UTC().Format(time.RFC3339)

	record := writtenRecord{
		Timestamp: timestamp,
		Type:      "written",
		Feedback:  text,
		History:   make([]exchange, 0, len(history)),
	}
	for _, turn := range history {
		record.History = append(record.History, exchange{User: turn.User, Assistant: turn.Assistant})
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode written feedback: %w", err)
	}

	key := fmt.Sprintf("feedback/written-%s.json", timestamp)
	if err := a.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store written feedback: %w", err)
	}

	logger.Info("written feedback saved", zap.String("key", key))
	return nil
}
