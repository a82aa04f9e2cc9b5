package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, Split("", DefaultMaxChunkSize))
	assert.Empty(t, Split("   \n\t  ", DefaultMaxChunkSize))
}

func TestSplit_SingleSmallTranscript(t *testing.T) {
	chunks := Split("Hello world. This is a test.", 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world. This is a test.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Ordinal)
}

func TestSplit_NoTerminatingPunctuation(t *testing.T) {
	// No sentence boundary at all: the whole text is one sentence and must
	// come back as a single chunk, even past the bound.
	text := strings.Repeat("welcome to the onboarding course ", 10)
	chunks := Split(text, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.TrimSpace(text), chunks[0].Text)
	assert.Greater(t, len(chunks[0].Text), 50)
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("a", 120) + "."
	text := "Short one. " + long + " Short two."
	chunks := Split(text, 50)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Short one.", chunks[0].Text)
	assert.Equal(t, long, chunks[1].Text)
	assert.Equal(t, "Short two.", chunks[2].Text)
}

func TestSplit_RespectsBound(t *testing.T) {
	// 30 sentences of 89 bytes each: greedy accumulation packs 11 per chunk
	// (11*89 + 10 separators = 989 <= 1000), yielding 3 chunks.
	sentence := strings.Repeat("a", 88) + "."
	text := strings.Repeat(sentence+" ", 30)

	chunks := Split(text, 1000)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 1000)
		assert.True(t, strings.HasSuffix(c.Text, "."), "chunk must end at a sentence boundary")
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	sentences := []string{
		"Performance reviews happen twice a year.",
		"Managers schedule them through the portal!",
		"Did you complete the compliance module?",
		"The final sentence has no terminator",
	}
	text := strings.Join(sentences, " ")

	chunks := Split(text, 60)
	require.NotEmpty(t, chunks)

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		require.Equal(t, i, c.Ordinal)
		parts[i] = c.Text
	}
	assert.Equal(t, text, strings.Join(parts, " "))
}

func TestSplit_OrdinalsAreSequential(t *testing.T) {
	sentence := "This sentence is reasonably long for a chunk bound. "
	chunks := Split(strings.Repeat(sentence, 20), 100)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.NotEmpty(t, c.Text)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "One. Two? Three! Four."
	first := Split(text, 10)
	second := Split(text, 10)
	assert.Equal(t, first, second)
}

func TestSplit_QuestionAndExclamationBoundaries(t *testing.T) {
	chunks := Split("Is this covered? Yes! Every module counts.", 20)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Is this covered?", chunks[0].Text)
	assert.Equal(t, "Yes!", chunks[1].Text)
	assert.Equal(t, "Every module counts.", chunks[2].Text)
}

func TestSplitSentences(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "Hello world. This is a test.",
			want: []string{"Hello world.", "This is a test."},
		},
		{
			name: "mixed terminators",
			text: "One. Two? Three!",
			want: []string{"One.", "Two?", "Three!"},
		},
		{
			name: "decimal numbers do not split without whitespace",
			text: "The budget is 3.5 million dollars.",
			want: []string{"The budget is 3.5 million dollars."},
		},
		{
			name: "trailing text without terminator",
			text: "First sentence. second part without end",
			want: []string{"First sentence.", "second part without end"},
		},
		{
			name: "newlines count as whitespace",
			text: "Line one.\nLine two.",
			want: []string{"Line one.", "Line two."},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitSentences(tc.text))
		})
	}
}
