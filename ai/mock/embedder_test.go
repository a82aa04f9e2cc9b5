package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/brightpath/coursemem/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("deterministic for the same text", func(t *testing.T) {
		embedder := NewMockEmbedder(8)

		v1, err := embedder.EmbedText(ctx, "expense reports")
		require.NoError(t, err)
		v2, err := embedder.EmbedText(ctx, "expense reports")
		require.NoError(t, err)

		assert.Len(t, v1, 8)
		assert.Equal(t, v1, v2)
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		embedder := NewMockEmbedder(8)

		_, err := embedder.EmbedText(ctx, "")
		assert.ErrorIs(t, err, ai.ErrEmptyText)
	})

	t.Run("injected func overrides the default", func(t *testing.T) {
		embedder := NewMockEmbedder(2)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		}

		v, err := embedder.EmbedText(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, v)
	})
}

func TestMockEmbedder_CallCount(t *testing.T) {
	ctx := context.Background()

	t.Run("counts every call", func(t *testing.T) {
		embedder := NewMockEmbedder(8)

		_, err := embedder.EmbedText(ctx, "one")
		require.NoError(t, err)
		_, err = embedder.EmbedTexts(ctx, []string{"two", "three"})
		require.NoError(t, err)

		assert.Equal(t, 2, embedder.CallCount())
	})

	t.Run("counts calls from concurrent workers", func(t *testing.T) {
		embedder := NewMockEmbedder(8)

		const workers = 16
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := embedder.EmbedText(ctx, "concurrent call")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, workers, embedder.CallCount())
	})

	t.Run("reset clears count and injected behavior", func(t *testing.T) {
		embedder := NewMockEmbedder(8)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, ai.ErrEmptyText
		}
		_, err := embedder.EmbedText(ctx, "one")
		require.Error(t, err)

		embedder.Reset()

		assert.Equal(t, 0, embedder.CallCount())
		_, err = embedder.EmbedText(ctx, "one")
		assert.NoError(t, err)
	})
}
