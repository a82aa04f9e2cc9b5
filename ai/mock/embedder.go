package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/brightpath/coursemem/ai"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// Dim is the dimensionality of generated vectors.
	Dim int

	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	// Injected functions must be set before the embedder is shared with
	// concurrent workers.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// callCount is atomic: the ingestion pipeline calls EmbedText from
	// concurrent pool workers.
	callCount atomic.Int64
}

// NewMockEmbedder creates a mock embedder producing deterministic unit vectors
// of the given dimensionality.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	if text == "" {
		return nil, ai.ErrEmptyText
	}

	return generateDeterministicVector(text, m.Dim), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, ai.ErrEmptyText
		}
		embeddings[i] = generateDeterministicVector(text, m.Dim)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// LCG constants
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / float32(sumSquares)
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
