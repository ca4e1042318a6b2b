package feedback

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-kb/lumina/internal/objectstore"
	"github.com/lumina-kb/lumina/internal/storage/models"
)

func readStats(t *testing.T, store *objectstore.Memory) Stats {
	t.Helper()
	obj, err := store.Get(context.Background(), statsKey)
	require.NoError(t, err)

	var stats Stats
	require.NoError(t, json.Unmarshal(obj.Data, &stats))
	return stats
}

func TestRecordReactionInitializesCounter(t *testing.T) {
	store := objectstore.NewMemory()
	agg := New(store)

	require.NoError(t, agg.RecordReaction(context.Background(), Positive))

	stats := readStats(t, store)
	assert.Equal(t, 1, stats.ThumbsUp)
	assert.Equal(t, 0, stats.ThumbsDown)
	assert.NotEmpty(t, stats.LastUpdated)
}

func TestRecordReactionIncrementsExistingCounter(t *testing.T) {
	store := objectstore.NewMemory()
	agg := New(store)
	ctx := context.Background()

	require.NoError(t, agg.RecordReaction(ctx, Positive))
	require.NoError(t, agg.RecordReaction(ctx, Negative))
	require.NoError(t, agg.RecordReaction(ctx, Negative))

	stats := readStats(t, store)
	assert.Equal(t, 1, stats.ThumbsUp)
	assert.Equal(t, 2, stats.ThumbsDown)
}

func TestRecordReactionRejectsUnknownKind(t *testing.T) {
	agg := New(objectstore.NewMemory())
	assert.Error(t, agg.RecordReaction(context.Background(), Kind("confused")))
}

func TestRecordReactionConcurrentUpdatesConverge(t *testing.T) {
	store := objectstore.NewMemory()
	ctx := context.Background()

	// Seed the counter so every writer takes the compare-and-swap path.
	require.NoError(t, New(store).RecordReaction(ctx, Positive))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Dropping on contention is allowed; failing is not.
			assert.NoError(t, New(store).RecordReaction(ctx, Positive))
		}()
	}
	wg.Wait()

	stats := readStats(t, store)
	assert.GreaterOrEqual(t, stats.ThumbsUp, 1)
	assert.LessOrEqual(t, stats.ThumbsUp, writers+1)
}

// contendedStore fails every conditional write as if another session got
// there first.
type contendedStore struct {
	*objectstore.Memory
	attempts int
}

func (s *contendedStore) PutIfMatch(context.Context, string, []byte, string) error {
	s.attempts++
	return objectstore.ErrPreconditionFailed
}

func (s *contendedStore) PutIfAbsent(context.Context, string, []byte) error {
	s.attempts++
	return objectstore.ErrPreconditionFailed
}

func TestRecordReactionDropsAfterRetryBudget(t *testing.T) {
	store := &contendedStore{Memory: objectstore.NewMemory()}
	agg := New(store)

	err := agg.RecordReaction(context.Background(), Negative)

	assert.NoError(t, err, "a dropped update must not fail the session")
	assert.Equal(t, casAttempts, store.attempts)
}

func TestRecordWritten(t *testing.T) {
	store := objectstore.NewMemory()
	agg := New(store)
	agg.now = func() time.Time {
		return time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	}

	history := []models.Exchange{
		{User: "how do I deploy?", Assistant: "Use the release pipeline."},
	}
	require.NoError(t, agg.RecordWritten(context.Background(), "great answer", history))

	keys := store.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "feedback/written-2024-05-14T09:30:00Z.json", keys[0])

	obj, err := store.Get(context.Background(), keys[0])
	require.NoError(t, err)

	var record struct {
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Feedback  string `json:"feedback"`
		History   []struct {
			User      string `json:"user"`
			Assistant string `json:"assistant"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(obj.Data, &record))
	assert.Equal(t, "written", record.Type)
	assert.Equal(t, "great answer", record.Feedback)
	require.Len(t, record.History, 1)
	assert.Equal(t, "how do I deploy?", record.History[0].User)
}

func TestWrittenRecordsNeverOverwrite(t *testing.T) {
	store := objectstore.NewMemory()
	agg := New(store)

	base := time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	calls := 0
	agg.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	ctx := context.Background()
	require.NoError(t, agg.RecordWritten(ctx, "first", nil))
	require.NoError(t, agg.RecordWritten(ctx, "second", nil))

	assert.Len(t, store.Keys(), 2)
}
