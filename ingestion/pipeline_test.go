package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brightpath/coursemem/ai/mock"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
	"github.com/brightpath/coursemem/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDims = 8

func setupTestRepository(t *testing.T) storage.EmbeddingRepository {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository(testDims)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func setupTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.EmbeddingRepository, *mock.MockEmbedder) {
	t.Helper()

	repo := setupTestRepository(t)
	embedder := mock.NewMockEmbedder(testDims)
	provider := mock.NewMockProviderWithEmbedder(embedder)

	// Fast retries so failure tests don't sleep for real
	defaults := []Option{WithRetryPolicy(3, time.Millisecond)}
	pipeline, err := NewPipeline(repo, provider, append(defaults, opts...)...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, repo, embedder
}

func vectorLength(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNewPipeline(t *testing.T) {
	repo := setupTestRepository(t)
	provider := mock.NewMockProvider(testDims)

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, provider)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.repository)
		assert.NotNil(t, pipeline.embedder)
		assert.NotNil(t, pipeline.pool)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewPipeline(nil, provider)
		assert.Equal(t, ErrRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(repo, nil)
		assert.Equal(t, ErrProviderRequired, err)
	})

	t.Run("invalid retry policy", func(t *testing.T) {
		_, err := NewPipeline(repo, provider, WithRetryPolicy(0, time.Second))
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("invalid chunk size", func(t *testing.T) {
		_, err := NewPipeline(repo, provider, WithMaxChunkSize(0))
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(repo, provider, WithLogger(logger))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(repo, provider, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()
	})
}

func TestPipeline_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path stores one record per chunk", func(t *testing.T) {
		pipeline, repo, _ := setupTestPipeline(t, WithMaxChunkSize(40))

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Welcome to the course. Today we cover onboarding. Ask questions anytime. See you next week.",
			Course:     1,
			Lesson:     "intro",
			Metadata:   map[string]string{"language": "en"},
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, StatusCompleted, result.Status)
		assert.True(t, result.Success())
		assert.Greater(t, result.ChunksTotal, 1)
		assert.Equal(t, result.ChunksTotal, result.ChunksProcessed)
		assert.Empty(t, result.Failures)
		assert.False(t, result.Canceled)

		records, err := repo.GetEmbeddingRecordsByLesson(ctx, 1, "intro")
		require.NoError(t, err)
		require.Len(t, records, result.ChunksTotal)

		for i, record := range records {
			assert.Equal(t, i, record.Ordinal)
			assert.Equal(t, core.CourseID(1), record.Course)
			assert.Equal(t, "transcript", record.Metadata["source"])
			assert.Equal(t, "en", record.Metadata["language"])
			// Vectors are normalized before persistence
			assert.InDelta(t, 1.0, vectorLength(record.Vector), 0.001)
		}
	})

	t.Run("empty transcript completes with zero chunks", func(t *testing.T) {
		pipeline, repo, embedder := setupTestPipeline(t)

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "",
			Course:     1,
			Lesson:     "empty",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, 0, result.ChunksTotal)
		assert.Equal(t, 0, result.ChunksProcessed)
		assert.Equal(t, 0, embedder.CallCount())

		count, err := repo.CountByCourse(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("whitespace transcript completes with zero chunks", func(t *testing.T) {
		pipeline, _, _ := setupTestPipeline(t)

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "   \n\t  ",
			Course:     1,
			Lesson:     "blank",
		})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, 0, result.ChunksTotal)
	})

	t.Run("nil request is rejected", func(t *testing.T) {
		pipeline, _, _ := setupTestPipeline(t)

		result, err := pipeline.Ingest(ctx, nil)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrInvalidRequest)
	})

	t.Run("missing course is rejected", func(t *testing.T) {
		pipeline, _, embedder := setupTestPipeline(t)

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Some perfectly fine transcript.",
			Lesson:     "intro",
		})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrCourseRequired)
		assert.Equal(t, 0, embedder.CallCount())
	})
}

func TestPipeline_Ingest_ChunkFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("one chunk failing does not stop the others", func(t *testing.T) {
		pipeline, repo, embedder := setupTestPipeline(t, WithMaxChunkSize(40))

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			if strings.Contains(text, "poison") {
				return nil, errors.New("provider unavailable")
			}
			return make([]float32, testDims), nil
		}

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "This chunk is fine and stays. This poison chunk always fails. This last chunk also stays.",
			Course:     1,
			Lesson:     "mixed",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPartiallyFailed, result.Status)
		assert.False(t, result.Success())
		assert.Equal(t, 3, result.ChunksTotal)
		assert.Equal(t, 2, result.ChunksProcessed)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, 1, result.Failures[0].Ordinal)
		assert.Contains(t, result.Failures[0].Reason, "provider unavailable")

		// Successful chunks are durable despite the failure
		records, err := repo.GetEmbeddingRecordsByLesson(ctx, 1, "mixed")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("all chunks failing yields StatusFailed", func(t *testing.T) {
		pipeline, _, embedder := setupTestPipeline(t, WithMaxChunkSize(40))

		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider down")
		}

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "First sentence here. Second sentence here.",
			Course:     1,
			Lesson:     "down",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, result.Status)
		assert.Equal(t, 0, result.ChunksProcessed)
		assert.Len(t, result.Failures, result.ChunksTotal)
	})

	t.Run("transient failure succeeds on retry", func(t *testing.T) {
		pipeline, repo, embedder := setupTestPipeline(t)

		var calls atomic.Int32
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("transient blip")
			}
			return make([]float32, testDims), nil
		}

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "A single short sentence.",
			Course:     1,
			Lesson:     "flaky",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, int32(3), calls.Load())

		count, err := repo.CountByCourse(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("dimension mismatch fails without retry or write", func(t *testing.T) {
		pipeline, repo, embedder := setupTestPipeline(t)

		var calls atomic.Int32
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			calls.Add(1)
			return []float32{0.1, 0.2}, nil // wrong width
		}

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "A single short sentence.",
			Course:     1,
			Lesson:     "wrong-model",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, result.Status)
		require.Len(t, result.Failures, 1)
		assert.Contains(t, result.Failures[0].Reason, "dimension mismatch")
		// The embed call itself succeeded, so no retries happened
		assert.Equal(t, int32(1), calls.Load())

		count, err := repo.CountByCourse(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestPipeline_Ingest_Cancellation(t *testing.T) {
	t.Run("already canceled context processes nothing", func(t *testing.T) {
		pipeline, repo, _ := setupTestPipeline(t, WithMaxChunkSize(40))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "First sentence here. Second sentence here. Third sentence here.",
			Course:     1,
			Lesson:     "canceled",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, result.Status)
		assert.True(t, result.Canceled)
		assert.Equal(t, 0, result.ChunksProcessed)
		assert.NotEmpty(t, result.Failures)

		count, err := repo.CountByCourse(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("cancellation after dispatch is reported", func(t *testing.T) {
		pipeline, _, embedder := setupTestPipeline(t)

		// A single-chunk transcript dispatches immediately, so the dispatch
		// loop never sees the context canceled. The worker cancels it.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			cancel()
			return nil, ctx.Err()
		}

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "One short sentence.",
			Course:     1,
			Lesson:     "canceled-late",
		})
		require.NoError(t, err)

		assert.True(t, result.Canceled)
		assert.Equal(t, StatusFailed, result.Status)
	})
}

func TestPipeline_Ingest_LessonReplacement(t *testing.T) {
	ctx := context.Background()

	t.Run("re-ingesting replaces the lesson", func(t *testing.T) {
		pipeline, repo, _ := setupTestPipeline(t, WithMaxChunkSize(40))

		_, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Original take one. Original take two. Original take three.",
			Course:     1,
			Lesson:     "redo",
		})
		require.NoError(t, err)

		result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Corrected transcript.",
			Course:     1,
			Lesson:     "redo",
		})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, result.Status)

		records, err := repo.GetEmbeddingRecordsByLesson(ctx, 1, "redo")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Corrected transcript.", records[0].Content)
	})

	t.Run("replacement leaves other lessons alone", func(t *testing.T) {
		pipeline, repo, _ := setupTestPipeline(t)

		_, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Lesson A content.",
			Course:     1,
			Lesson:     "lesson-a",
		})
		require.NoError(t, err)

		_, err = pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Lesson B content.",
			Course:     1,
			Lesson:     "lesson-b",
		})
		require.NoError(t, err)

		records, err := repo.GetEmbeddingRecordsByLesson(ctx, 1, "lesson-a")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("replacement disabled accumulates records", func(t *testing.T) {
		pipeline, repo, _ := setupTestPipeline(t, WithLessonReplace(false))

		_, err := pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "First version.",
			Course:     1,
			Lesson:     "append",
		})
		require.NoError(t, err)

		_, err = pipeline.Ingest(ctx, &core.IngestionRequest{
			Transcript: "Second version.",
			Course:     1,
			Lesson:     "append",
		})
		require.NoError(t, err)

		records, err := repo.GetEmbeddingRecordsByLesson(ctx, 1, "append")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestPipeline_Release(t *testing.T) {
	repo := setupTestRepository(t)
	provider := mock.NewMockProvider(testDims)

	pipeline, err := NewPipeline(repo, provider)
	require.NoError(t, err)

	// Release should not panic
	pipeline.Release()

	// Multiple releases should not panic
	pipeline.Release()
}
