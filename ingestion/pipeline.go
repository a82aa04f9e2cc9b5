package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/segment"
	"github.com/brightpath/coursemem/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultPoolSize       = 4
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Pipeline orchestrates the ingestion of lesson transcripts.
// It segments a transcript into chunks, embeds each chunk concurrently and
// persists the resulting records, retrying transient failures per chunk.
type Pipeline struct {
	repository     storage.EmbeddingRepository
	embedder       ai.Embedder
	pool           *ants.Pool
	maxChunkSize   int
	maxAttempts    int
	retryBaseDelay time.Duration
	replaceLesson  bool
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent chunk processing.
// Default is 4.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMaxChunkSize sets the maximum chunk size in bytes for segmentation.
// Default is segment.DefaultMaxChunkSize.
func WithMaxChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: chunk size must be greater than 0", core.ErrInvalidRequest)
		}
		p.maxChunkSize = size
		return nil
	}
}

// WithRetryPolicy sets the per-chunk retry policy.
// Default is 3 attempts with a 500ms base delay, doubling per attempt.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithLessonReplace controls whether ingesting a lesson first deletes that
// lesson's existing records. Default is true, so re-ingesting a corrected
// transcript replaces stale chunks instead of accumulating next to them.
func WithLessonReplace(replace bool) Option {
	return func(p *Pipeline) error {
		p.replaceLesson = replace
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.EmbeddingRepository,
	provider ai.EmbeddingProvider,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		repository:     repository,
		embedder:       provider.Embedder(),
		pool:           pool,
		maxChunkSize:   segment.DefaultMaxChunkSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		replaceLesson:  true,
		logger:         slog.Default().With("component", "ingestion-pipeline"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest processes a lesson transcript synchronously and reports the outcome.
//
// The transcript is segmented into sentence-aligned chunks, each chunk is
// embedded and stored concurrently, and transient failures are retried per
// chunk. One chunk exhausting its retries does not stop the others; the
// failure is recorded in the Result and the run continues.
//
// An invalid request (nil or missing course) returns a nil Result and an
// error. An empty transcript is not an error: it completes with zero chunks.
//
// When ctx is canceled, no new chunks are dispatched; chunks already in
// flight finish, and the Result reports StatusFailed with Canceled set.
func (p *Pipeline) Ingest(ctx context.Context, req *core.IngestionRequest) (*Result, error) {
	if err := core.ValidateIngestionRequest(req); err != nil {
		return nil, err
	}

	chunks := segment.Split(req.Transcript, p.maxChunkSize)
	if len(chunks) == 0 {
		p.logger.Info("transcript produced no chunks",
			"course", req.Course, "lesson", req.Lesson)
		return &Result{Status: StatusCompleted}, nil
	}

	if p.replaceLesson && req.Lesson != "" {
		removed, err := p.repository.DeleteByLesson(ctx, req.Course, req.Lesson)
		if err != nil {
			return nil, fmt.Errorf("replacing lesson %q: %w", req.Lesson, err)
		}
		if removed > 0 {
			p.logger.Info("replaced existing lesson records",
				"course", req.Course, "lesson", req.Lesson, "removed", removed)
		}
	}

	collector := &resultCollector{}
	var wg sync.WaitGroup
	canceled := false

	for _, chunk := range chunks {
		// Stop dispatching once the context is done; in-flight chunks finish
		select {
		case <-ctx.Done():
			canceled = true
		default:
		}
		if canceled {
			collector.recordFailure(chunk.Ordinal, ctx.Err())
			continue
		}

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			p.processChunk(ctx, req, chunk, collector)
		}); err != nil {
			wg.Done()
			collector.recordFailure(chunk.Ordinal, err)
		}
	}

	wg.Wait()

	// Cancellation can land after the last chunk was dispatched; the flag
	// from the dispatch loop alone would miss it.
	if ctx.Err() != nil {
		canceled = true
	}

	result := collector.finalize(len(chunks), canceled)
	p.logger.Info("ingestion finished",
		"course", req.Course,
		"lesson", req.Lesson,
		"status", result.Status,
		"total", result.ChunksTotal,
		"processed", result.ChunksProcessed,
		"failed", len(result.Failures))
	return result, nil
}

// processChunk embeds and stores a single chunk, retrying transient failures.
func (p *Pipeline) processChunk(ctx context.Context, req *core.IngestionRequest, chunk core.TextChunk, collector *resultCollector) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vector, embedErr = p.embedder.EmbedText(ctx, chunk.Text)
		return embedErr
	}, p.maxAttempts, p.retryBaseDelay)
	if err != nil {
		p.logger.Error("embedding chunk failed",
			"course", req.Course, "lesson", req.Lesson, "ordinal", chunk.Ordinal, "err", err)
		collector.recordFailure(chunk.Ordinal, err)
		return
	}

	vector = core.NormalizeVector(vector)

	// A wrong-sized vector means the configured model does not match the
	// platform dimension. Retrying cannot fix that, so fail the chunk
	// immediately and never hand the vector to storage.
	if len(vector) != p.repository.Dimensions() {
		err := fmt.Errorf("%w: got %d, want %d",
			storage.ErrDimensionMismatch, len(vector), p.repository.Dimensions())
		p.logger.Error("embedding dimension mismatch",
			"course", req.Course, "lesson", req.Lesson, "ordinal", chunk.Ordinal, "err", err)
		collector.recordFailure(chunk.Ordinal, err)
		return
	}

	record := &core.EmbeddingRecord{
		Course:   req.Course,
		Lesson:   req.Lesson,
		Ordinal:  chunk.Ordinal,
		Content:  chunk.Text,
		Vector:   vector,
		Metadata: recordMetadata(req.Metadata),
	}

	err = RetryWithBackoff(ctx, func() error {
		_, storeErr := p.repository.AddEmbeddingRecords(ctx, record)
		return storeErr
	}, p.maxAttempts, p.retryBaseDelay)
	if err != nil {
		p.logger.Error("storing chunk failed",
			"course", req.Course, "lesson", req.Lesson, "ordinal", chunk.Ordinal, "err", err)
		collector.recordFailure(chunk.Ordinal, err)
		return
	}

	collector.recordSuccess()
}

// recordMetadata merges request metadata with the standard source tag.
func recordMetadata(requestMeta map[string]string) map[string]string {
	metadata := make(map[string]string, len(requestMeta)+1)
	for k, v := range requestMeta {
		metadata[k] = v
	}
	metadata["source"] = "transcript"
	return metadata
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
