package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests require a running Postgres with pgvector.
// Set COURSEMEM_TEST_PG_DSN to run them, e.g.
//
//	COURSEMEM_TEST_PG_DSN="host=localhost user=postgres dbname=coursemem_test" go test ./storage/postgres/
func setupPostgresRepository(t *testing.T) storage.EmbeddingRepository {
	t.Helper()

	dsn := os.Getenv("COURSEMEM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("COURSEMEM_TEST_PG_DSN not set, skipping Postgres integration test")
	}

	backend, err := OpenBackend(dsn)
	require.NoError(t, err)

	repo, err := NewEmbeddingRepository(backend, 768)
	require.NoError(t, err)

	t.Cleanup(func() {
		// Leave other courses' data alone; tests use course 999001/999002.
		repo.DeleteByCourse(context.Background(), 999001)
		repo.DeleteByCourse(context.Background(), 999002)
		repo.Close()
		backend.Close()
	})
	return repo
}

func testVector(fill float32) []float32 {
	v := make([]float32, 768)
	v[0] = fill
	return v
}

func TestPostgresAddAndGet(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgresRepository(t)

	record := &core.EmbeddingRecord{
		Course:   999001,
		Lesson:   "intro",
		Ordinal:  0,
		Content:  "Hello from Postgres.",
		Vector:   testVector(1),
		Metadata: map[string]string{"source": "transcript"},
	}

	added, err := repo.AddEmbeddingRecords(ctx, record)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)

	got, err := repo.GetEmbeddingRecord(ctx, 999001, record.Id)
	require.NoError(t, err)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, "transcript", got.Metadata["source"])
}

func TestPostgresFindSimilarScopedByCourse(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgresRepository(t)

	_, err := repo.AddEmbeddingRecords(ctx,
		&core.EmbeddingRecord{Course: 999001, Lesson: "intro", Ordinal: 0, Content: "Match.", Vector: testVector(1)},
		&core.EmbeddingRecord{Course: 999002, Lesson: "intro", Ordinal: 0, Content: "Other course.", Vector: testVector(1)},
	)
	require.NoError(t, err)

	results, err := repo.FindSimilar(ctx, 999001, testVector(1), 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.CourseID(999001), results[0].Record.Course)
	assert.Equal(t, "Match.", results[0].Record.Content)
}

func TestPostgresDeleteByLesson(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgresRepository(t)

	_, err := repo.AddEmbeddingRecords(ctx,
		&core.EmbeddingRecord{Course: 999001, Lesson: "doomed", Ordinal: 0, Content: "Chunk one.", Vector: testVector(1)},
		&core.EmbeddingRecord{Course: 999001, Lesson: "doomed", Ordinal: 1, Content: "Chunk two.", Vector: testVector(2)},
		&core.EmbeddingRecord{Course: 999001, Lesson: "kept", Ordinal: 0, Content: "Survivor.", Vector: testVector(3)},
	)
	require.NoError(t, err)

	deleted, err := repo.DeleteByLesson(ctx, 999001, "doomed")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	records, err := repo.GetEmbeddingRecordsByLesson(ctx, 999001, "kept")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
