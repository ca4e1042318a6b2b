package enhance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumina-kb/lumina/internal/llm"
)

type fakeGenerator struct {
	responses []fakeResponse
	calls     int
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeGenerator) Complete(context.Context, llm.CompletionRequest) (string, error) {
	if f.calls >= len(f.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp.content, resp.err
}

func TestEnhanceReturnsImprovedText(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{content: "  Cleaned up text.  "},
	}}
	e := New(gen)

	got := e.Enhance(context.Background(), "raw transcript text", "meeting.txt")

	assert.Equal(t, "Cleaned up text.", got)
}

func TestEnhanceRetriesTransientFailures(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("upstream hiccup")},
		{content: "Second try worked."},
	}}
	e := New(gen)

	got := e.Enhance(context.Background(), "raw text", "meeting.txt")

	assert.Equal(t, "Second try worked.", got)
	assert.Equal(t, 2, gen.calls)
}

func TestEnhanceWaitsOutRateLimits(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: &llm.RateLimitError{RetryAfter: time.Millisecond}},
		{content: "Done."},
	}}
	e := New(gen)

	assert.Equal(t, "Done.", e.Enhance(context.Background(), "raw text", "meeting.txt"))
}

func TestEnhanceKeepsOriginalOnExhaustion(t *testing.T) {
	failure := fakeResponse{err: errors.New("boom")}
	gen := &fakeGenerator{responses: []fakeResponse{failure, failure, failure}}
	e := New(gen)

	original := "the original transcript chunk"
	got := e.Enhance(context.Background(), original, "meeting.txt")

	assert.Equal(t, original, got, "content must never be lost")
	assert.Equal(t, 3, gen.calls)
}

func TestEnhanceMayReturnEmptyOnSuccess(t *testing.T) {
	// A successful call that yields nothing is the service's verdict,
	// not a failure; callers decide whether to skip the chunk.
	gen := &fakeGenerator{responses: []fakeResponse{{content: "   "}}}
	e := New(gen)

	assert.Equal(t, "", e.Enhance(context.Background(), "raw text", "meeting.txt"))
}
