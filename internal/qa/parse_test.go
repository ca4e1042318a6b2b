package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePairs(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected []map[string]any
	}{
		{
			name:     "plain json array",
			raw:      `[{"question": "Q1", "answer": "A1"}]`,
			expected: []map[string]any{{"question": "Q1", "answer": "A1"}},
		},
		{
			name: "fenced json block",
			raw: "```json\n" +
				`[{"question": "Q1", "answer": "A1"}]` + "\n```",
			expected: []map[string]any{{"question": "Q1", "answer": "A1"}},
		},
		{
			name:     "bare fence without language tag",
			raw:      "```\n[{\"question\": \"Q1\", \"answer\": \"A1\"}]\n```",
			expected: []map[string]any{{"question": "Q1", "answer": "A1"}},
		},
		{
			name:     "double encoded payload",
			raw:      `"[{\"question\": \"Q1\", \"answer\": \"A1\"}]"`,
			expected: []map[string]any{{"question": "Q1", "answer": "A1"}},
		},
		{
			name:     "single quoted literal syntax",
			raw:      `[{'question': 'What is it?', 'answer': 'It\'s a tool.'}]`,
			expected: []map[string]any{{"question": "What is it?", "answer": "It's a tool."}},
		},
		{
			name:     "literal constants",
			raw:      `[{'question': 'Q', 'answer': 'A', 'verified': True, 'source': None}]`,
			expected: []map[string]any{{"question": "Q", "answer": "A", "verified": true, "source": nil}},
		},
		{
			name:     "array wrapped in prose",
			raw:      `Here are the pairs: [{"question": "Q1", "answer": "A1"}] Hope that helps!`,
			expected: []map[string]any{{"question": "Q1", "answer": "A1"}},
		},
		{
			name:     "control characters inside strings",
			raw:      "[{\"question\": \"Q\x01\x02one\", \"answer\": \"A1\"}]",
			expected: []map[string]any{{"question": "Q one", "answer": "A1"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := decodePairs(tc.raw)

			require.True(t, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDecodePairsRejectsNonLists(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"prose only", "I could not generate any pairs."},
		{"top level object", `{"question": "Q", "answer": "A"}`},
		{"list of scalars", `["one", "two"]`},
		{"empty input", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := decodePairs(tc.raw)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeLiteralPreservesStringContents(t *testing.T) {
	// Words that look like constants stay untouched inside strings.
	got := normalizeLiteral(`['True story', 'None of it']`)
	assert.Equal(t, `["True story", "None of it"]`, got)
}
