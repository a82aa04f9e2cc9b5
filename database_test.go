package coursemem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.EmbeddingRepository())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
		assert.Equal(t, ai.DefaultConfig().Dimensions, db.repo.Dimensions())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid AI config", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithAIConfig(&ai.Config{Host: "http://localhost:11434"}))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("custom provider sets repository dimensions", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider(16)))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 16, db.repo.Dimensions())
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider(8)))
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := db.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := db.NewReembedder(nil, &bytes.Buffer{})
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})
}
