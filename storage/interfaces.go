package storage

import (
	"context"

	"github.com/brightpath/coursemem/core"
)

// EmbeddingRepository provides operations for managing embedding records.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingRepository interface {
	// AddEmbeddingRecords adds one or more embedding records to storage.
	// For records with Id=0, derives the ID from the record identity.
	// Sets InsertedAt timestamp if not already set.
	// Rejects records whose vector length differs from Dimensions with
	// ErrDimensionMismatch; nothing is written in that case.
	// Returns the records with generated IDs and timestamps populated.
	AddEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error)

	// UpdateEmbeddingRecords updates existing embedding records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error)

	// DeleteEmbeddingRecords removes embedding records by their IDs.
	// Also removes associated lesson indices.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteEmbeddingRecords(ctx context.Context, course core.CourseID, ids ...core.ID) error

	// GetEmbeddingRecord retrieves a single embedding record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetEmbeddingRecord(ctx context.Context, course core.CourseID, id core.ID) (*core.EmbeddingRecord, error)

	// GetEmbeddingRecordsByCourse retrieves all records for a course,
	// ordered by lesson and ordinal.
	GetEmbeddingRecordsByCourse(ctx context.Context, course core.CourseID) ([]*core.EmbeddingRecord, error)

	// GetEmbeddingRecordsByLesson retrieves all records for a lesson within a
	// course, ordered by ordinal.
	GetEmbeddingRecordsByLesson(ctx context.Context, course core.CourseID, lesson string) ([]*core.EmbeddingRecord, error)

	// DeleteByLesson removes all records for a lesson within a course.
	// Returns the number of records removed. Deleting a lesson with no
	// records is not an error.
	DeleteByLesson(ctx context.Context, course core.CourseID, lesson string) (int, error)

	// DeleteByCourse removes all records for a course.
	// Returns the number of records removed.
	DeleteByCourse(ctx context.Context, course core.CourseID) (int, error)

	// CountByCourse returns the number of records stored for a course.
	CountByCourse(ctx context.Context, course core.CourseID) (int, error)

	// FindSimilar finds embedding records within a course similar to the
	// given vector. Records from other courses are never returned.
	// Returns records with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, course core.CourseID, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error)

	// FindSimilarInLesson is FindSimilar restricted to a single lesson.
	// The lesson predicate is applied before the limit, so higher-scoring
	// records from other lessons never crowd out the lesson's own matches.
	FindSimilarInLesson(ctx context.Context, course core.CourseID, lesson string, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error)

	// Dimensions returns the vector dimensionality this repository accepts.
	Dimensions() int

	// Close closes the storage backend and releases resources.
	Close() error
}
