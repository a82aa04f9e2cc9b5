package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmbeddingRepository implements storage.EmbeddingRepository on Postgres
// with pgvector. Similarity search runs in the database via the cosine
// distance operator instead of scanning records in application code.
type EmbeddingRepository struct {
	backend *Backend
	dims    int
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository accepting vectors
// of the given dimensionality. The dimensionality must match the vector
// column width of the migrated schema.
func NewEmbeddingRepository(backend *Backend, dims int) (*EmbeddingRepository, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be greater than 0", storage.ErrInvalidQuery)
	}
	return &EmbeddingRepository{
		backend: backend,
		dims:    dims,
	}, nil
}

// Close is a no-op; the backend owns the connection pool.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Dimensions returns the vector dimensionality this repository accepts.
func (r *EmbeddingRepository) Dimensions() int {
	return r.dims
}

func (r *EmbeddingRepository) validateRecord(record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record); err != nil {
		return err
	}
	if len(record.Vector) != r.dims {
		return fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(record.Vector), r.dims)
	}
	return nil
}

// AddEmbeddingRecords adds one or more embedding records to storage.
// Records with matching content-based IDs are overwritten in place, so
// re-ingestion of identical chunks is idempotent.
func (r *EmbeddingRepository) AddEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	for _, record := range records {
		if err := r.validateRecord(record); err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return records, nil
	}

	models := make([]*embeddingRecord, len(records))
	for i, record := range records {
		if record.Id == 0 {
			record.Id = core.IDFromContent(record.Identity())
		}
		if record.InsertedAt.IsZero() {
			record.InsertedAt = time.Now().UTC()
		}
		record.UpdatedAt = record.InsertedAt
		models[i] = toModel(record)
	}

	err := r.backend.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateEmbeddingRecords updates existing embedding records.
func (r *EmbeddingRepository) UpdateEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	for _, record := range records {
		if err := r.validateRecord(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			var existing embeddingRecord
			err := tx.Where("id = ? AND course_id = ?", int64(record.Id), int64(record.Course)).
				First(&existing).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return storage.ErrNotFound
				}
				return err
			}

			record.InsertedAt = existing.CreatedAt
			record.UpdatedAt = time.Now().UTC()
			if err := tx.Save(toModel(record)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteEmbeddingRecords removes embedding records by their IDs.
func (r *EmbeddingRepository) DeleteEmbeddingRecords(ctx context.Context, course core.CourseID, ids ...core.ID) error {
	return r.backend.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			result := tx.Where("id = ? AND course_id = ?", int64(id), int64(course)).
				Delete(&embeddingRecord{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return storage.ErrNotFound
			}
		}
		return nil
	})
}

// GetEmbeddingRecord retrieves a single embedding record by ID.
func (r *EmbeddingRepository) GetEmbeddingRecord(ctx context.Context, course core.CourseID, id core.ID) (*core.EmbeddingRecord, error) {
	var m embeddingRecord
	err := r.backend.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", int64(id), int64(course)).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return toRecord(&m), nil
}

// GetEmbeddingRecordsByCourse retrieves all records for a course, ordered by
// lesson and ordinal.
func (r *EmbeddingRepository) GetEmbeddingRecordsByCourse(ctx context.Context, course core.CourseID) ([]*core.EmbeddingRecord, error) {
	var models []*embeddingRecord
	err := r.backend.db.WithContext(ctx).
		Where("course_id = ?", int64(course)).
		Order("lesson_id, ordinal").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

// GetEmbeddingRecordsByLesson retrieves all records for a lesson within a
// course, ordered by ordinal.
func (r *EmbeddingRepository) GetEmbeddingRecordsByLesson(ctx context.Context, course core.CourseID, lesson string) ([]*core.EmbeddingRecord, error) {
	var models []*embeddingRecord
	err := r.backend.db.WithContext(ctx).
		Where("course_id = ? AND lesson_id = ?", int64(course), lesson).
		Order("ordinal").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

// DeleteByLesson removes all records for a lesson within a course.
func (r *EmbeddingRepository) DeleteByLesson(ctx context.Context, course core.CourseID, lesson string) (int, error) {
	result := r.backend.db.WithContext(ctx).
		Where("course_id = ? AND lesson_id = ?", int64(course), lesson).
		Delete(&embeddingRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// DeleteByCourse removes all records for a course.
func (r *EmbeddingRepository) DeleteByCourse(ctx context.Context, course core.CourseID) (int, error) {
	result := r.backend.db.WithContext(ctx).
		Where("course_id = ?", int64(course)).
		Delete(&embeddingRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// CountByCourse returns the number of records stored for a course.
func (r *EmbeddingRepository) CountByCourse(ctx context.Context, course core.CourseID) (int, error) {
	var count int64
	err := r.backend.db.WithContext(ctx).
		Model(&embeddingRecord{}).
		Where("course_id = ?", int64(course)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindSimilar finds embedding records within a course similar to the given
// vector.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, course core.CourseID, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error) {
	return r.similaritySearch(ctx, vector, minSimilarity, limit,
		"course_id = ?", int64(course))
}

// FindSimilarInLesson finds similar records within a single lesson of a
// course. The lesson predicate runs in the database, so the limit applies
// within the lesson rather than across the course.
func (r *EmbeddingRepository) FindSimilarInLesson(ctx context.Context, course core.CourseID, lesson string, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error) {
	return r.similaritySearch(ctx, vector, minSimilarity, limit,
		"course_id = ? AND lesson_id = ?", int64(course), lesson)
}

// similaritySearch runs the pgvector cosine query with the given scope
// predicate. Cosine distance in pgvector is 1 - cosine_similarity, so the
// similarity expression is 1 - (embedding <=> query).
func (r *EmbeddingRepository) similaritySearch(ctx context.Context, vector []float32, minSimilarity float32, limit int, scope string, scopeArgs ...any) ([]*core.ScoredRecord, error) {
	if len(vector) != r.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(vector), r.dims)
	}

	type scoredRow struct {
		embeddingRecord
		Similarity float32
	}
	var rows []scoredRow

	queryVector := pgvector.NewVector(vector)

	err := r.backend.db.WithContext(ctx).
		Table("embedding_records").
		Select("embedding_records.*, 1 - (embedding <=> ?) AS similarity", queryVector).
		Where(scope, scopeArgs...).
		Where("1 - (embedding <=> ?) >= ?", queryVector, minSimilarity).
		Order("similarity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*core.ScoredRecord, len(rows))
	for i, row := range rows {
		results[i] = &core.ScoredRecord{
			Record: toRecord(&row.embeddingRecord),
			Score:  row.Similarity,
		}
	}
	return results, nil
}

func toRecords(models []*embeddingRecord) []*core.EmbeddingRecord {
	records := make([]*core.EmbeddingRecord, len(models))
	for i, m := range models {
		records[i] = toRecord(m)
	}
	return records
}
