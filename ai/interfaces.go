package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
//
// Embedders do not retry: transient provider failures propagate to the caller,
// which owns the retry policy.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns ErrEmptyText if text is empty; wraps provider failures
	// in ErrProvider.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingProvider creates and manages an Embedder instance along with the
// platform-wide embedding dimensionality, ensuring both derive from one
// configuration.
type EmbeddingProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Dimensions returns the fixed output dimensionality of the configured
	// embedding model. Every record written platform-wide must carry a
	// vector of this length.
	Dimensions() int

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
