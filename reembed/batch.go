package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/ingestion"
	"github.com/brightpath/coursemem/storage"
)

// BatchProcessor handles embedding regeneration for batches of records.
type BatchProcessor struct {
	repo           storage.EmbeddingRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.EmbeddingRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process regenerates embeddings for a batch of records and updates them in
// the database. Vectors are normalized after embedding to stay compatible
// with cosine similarity search.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Extract chunk text
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Content
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := ingestion.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	// The new model must match the platform dimension; a mismatch here would
	// poison every record in the course, so fail before writing anything.
	for i, embedding := range embeddings {
		if len(embedding) != bp.repo.Dimensions() {
			return fmt.Errorf("%w: record %d got %d, want %d",
				storage.ErrDimensionMismatch, i, len(embedding), bp.repo.Dimensions())
		}
	}

	// Normalize vectors and assign to records
	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	// Update records in database
	_, err = bp.repo.UpdateEmbeddingRecords(ctx, records...)
	if err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
