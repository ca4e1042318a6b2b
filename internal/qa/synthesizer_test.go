package qa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-kb/lumina/internal/llm"
)

// fakeGenerator replays scripted responses in order.
type fakeGenerator struct {
	responses []fakeResponse
	calls     int
	prompts   []llm.CompletionRequest
}

type fakeResponse struct {
	content string
	err     error
}

func (f *fakeGenerator) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.prompts = append(f.prompts, req)
	if f.calls >= len(f.responses) {
		return "", errors.New("no scripted response left")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp.content, resp.err
}

func TestSynthesizeParsesPairs(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{content: `[{"question": " What  is X? ", "answer": "X is\na thing."}]`},
	}}
	s := NewSynthesizer(gen)

	pairs := s.Synthesize(context.Background(), "some content", "test-source")

	require.Len(t, pairs, 1)
	assert.Equal(t, "What is X?", pairs[0].Question)
	assert.Equal(t, "X is a thing.", pairs[0].Answer)
}

func TestSynthesizeDropsMalformedItems(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{content: `[
			{"question": "Q1", "answer": "A1"},
			{"question": "", "answer": "missing question"},
			{"question": "missing answer"},
			{"question": 42, "answer": "not a string"}
		]`},
	}}
	s := NewSynthesizer(gen)

	pairs := s.Synthesize(context.Background(), "content", "test-source")

	require.Len(t, pairs, 1)
	assert.Equal(t, "Q1", pairs[0].Question)
}

func TestSynthesizeRetriesAfterRateLimit(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: &llm.RateLimitError{RetryAfter: time.Millisecond}},
		{content: `[{"question": "Q", "answer": "A"}]`},
	}}
	s := NewSynthesizer(gen)

	pairs := s.Synthesize(context.Background(), "content", "test-source")

	require.Len(t, pairs, 1)
	assert.Equal(t, 2, gen.calls)
}

func TestSynthesizeGivesUpAfterRetryBudget(t *testing.T) {
	rateLimited := fakeResponse{err: &llm.RateLimitError{RetryAfter: time.Millisecond}}
	gen := &fakeGenerator{responses: []fakeResponse{rateLimited, rateLimited, rateLimited}}
	s := NewSynthesizer(gen)

	pairs := s.Synthesize(context.Background(), "content", "test-source")

	assert.Nil(t, pairs)
	assert.Equal(t, 3, gen.calls)
}

func TestSynthesizeReturnsNothingOnOtherErrors(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{err: errors.New("boom")},
	}}
	s := NewSynthesizer(gen)

	assert.Nil(t, s.Synthesize(context.Background(), "content", "test-source"))
	assert.Equal(t, 1, gen.calls, "non-rate-limit errors are not retried")
}

func TestSynthesizeReturnsNothingOnUnparseableOutput(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{content: "Sorry, I cannot help with that."},
	}}
	s := NewSynthesizer(gen)

	assert.Nil(t, s.Synthesize(context.Background(), "content", "test-source"))
}

func TestTargetRange(t *testing.T) {
	testCases := []struct {
		textLen     int
		expectedMin int
		expectedMax int
	}{
		{0, 10, 20},
		{999, 10, 20},
		{4000, 10, 20},
		{5000, 10, 20},
		{6000, 12, 22},
		{50000, 100, 110},
	}

	for _, tc := range testCases {
		min, max := targetRange(tc.textLen)
		assert.Equal(t, tc.expectedMin, min, "len %d", tc.textLen)
		assert.Equal(t, tc.expectedMax, max, "len %d", tc.textLen)
	}
}
