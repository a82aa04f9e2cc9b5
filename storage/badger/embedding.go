package badger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
	"github.com/dgraph-io/badger/v4"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	dims    int
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository accepting vectors
// of the given dimensionality.
func NewEmbeddingRepository(backend *Backend, dims int) (*EmbeddingRepository, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be greater than 0", storage.ErrInvalidQuery)
	}
	return &EmbeddingRepository{
		backend: backend,
		dims:    dims,
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Dimensions returns the vector dimensionality this repository accepts.
func (r *EmbeddingRepository) Dimensions() int {
	return r.dims
}

// FindSimilar delegates to the backend.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, course core.CourseID, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error) {
	if len(vector) != r.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(vector), r.dims)
	}
	return r.backend.FindSimilar(ctx, course, vector, minSimilarity, limit)
}

// FindSimilarInLesson scores only the records in the lesson's index, so the
// similarity limit applies within the lesson rather than across the course.
func (r *EmbeddingRepository) FindSimilarInLesson(ctx context.Context, course core.CourseID, lesson string, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredRecord, error) {
	if len(vector) != r.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", storage.ErrDimensionMismatch, len(vector), r.dims)
	}

	var results []*core.ScoredRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.lessonRecordIDs(tx, course, lesson)
		if err != nil {
			return err
		}

		for _, id := range ids {
			record, err := r.readEmbeddingRecord(tx, makeEmbeddingRecordKey(course, id))
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			if score := core.DotProduct(vector, record.Vector); score >= minSimilarity {
				results = append(results, &core.ScoredRecord{
					Record: record,
					Score:  score,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return rankResults(results, limit), nil
}

// validateRecord checks a record against core validation rules and the
// repository's dimensionality.
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
// All records are validated before anything is written, so a single bad
// record rejects the whole batch without a partial write.
func (r *EmbeddingRepository) AddEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	for _, record := range records {
		if err := r.validateRecord(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			// Content-based ID: the same chunk of the same lesson always
			// maps to the same key, so re-ingestion overwrites in place.
			if record.Id == 0 {
				record.Id = core.IDFromContent(record.Identity())
			}

			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}
			record.UpdatedAt = record.InsertedAt

			// Store primary record
			key := makeEmbeddingRecordKey(record.Course, record.Id)
			value := storage.MarshalEmbeddingRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update lesson index
			lessonKey := makeLessonIndexKey(record.Course, record.Lesson, record.Id)
			if err := tx.Set(lessonKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateEmbeddingRecords updates existing embedding records.
func (r *EmbeddingRepository) UpdateEmbeddingRecords(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	for _, record := range records {
		if err := r.validateRecord(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeEmbeddingRecordKey(record.Course, record.Id)

			old, err := r.readEmbeddingRecord(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.InsertedAt = old.InsertedAt
			record.UpdatedAt = time.Now().UTC()

			value := storage.MarshalEmbeddingRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update lesson index if the lesson changed
			if old.Lesson != record.Lesson {
				oldLessonKey := makeLessonIndexKey(old.Course, old.Lesson, old.Id)
				if err := tx.Delete(oldLessonKey); err != nil {
					return err
				}
				newLessonKey := makeLessonIndexKey(record.Course, record.Lesson, record.Id)
				if err := tx.Set(newLessonKey, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteEmbeddingRecords removes embedding records by their IDs.
func (r *EmbeddingRepository) DeleteEmbeddingRecords(ctx context.Context, course core.CourseID, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEmbeddingRecordKey(course, id)

			// Read record to get the lesson for index cleanup
			record, err := r.readEmbeddingRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			lessonKey := makeLessonIndexKey(record.Course, record.Lesson, record.Id)
			if err := tx.Delete(lessonKey); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEmbeddingRecord retrieves a single embedding record by ID.
func (r *EmbeddingRepository) GetEmbeddingRecord(ctx context.Context, course core.CourseID, id core.ID) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingRecordKey(course, id)
		var err error
		result, err = r.readEmbeddingRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEmbeddingRecordsByCourse retrieves all records for a course, ordered by
// lesson and ordinal.
func (r *EmbeddingRepository) GetEmbeddingRecordsByCourse(ctx context.Context, course core.CourseID) ([]*core.EmbeddingRecord, error) {
	var results []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCourseRecordPrefix(course)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.EmbeddingRecord) int {
		if c := cmp.Compare(a.Lesson, b.Lesson); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	return results, nil
}

// GetEmbeddingRecordsByLesson retrieves all records for a lesson within a
// course, ordered by ordinal.
func (r *EmbeddingRepository) GetEmbeddingRecordsByLesson(ctx context.Context, course core.CourseID, lesson string) ([]*core.EmbeddingRecord, error) {
	var results []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.lessonRecordIDs(tx, course, lesson)
		if err != nil {
			return err
		}
		for _, id := range ids {
			record, err := r.readEmbeddingRecord(tx, makeEmbeddingRecordKey(course, id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.EmbeddingRecord) int {
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	return results, nil
}

// DeleteByLesson removes all records for a lesson within a course.
func (r *EmbeddingRepository) DeleteByLesson(ctx context.Context, course core.CourseID, lesson string) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.lessonRecordIDs(tx, course, lesson)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Delete(makeEmbeddingRecordKey(course, id)); err != nil {
				return err
			}
			if err := tx.Delete(makeLessonIndexKey(course, lesson, id)); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteByCourse removes all records for a course.
func (r *EmbeddingRepository) DeleteByCourse(ctx context.Context, course core.CourseID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		recordKeys, err := collectKeys(tx, makeCourseRecordPrefix(course))
		if err != nil {
			return err
		}
		indexKeys, err := collectKeys(tx, makeCourseLessonPrefix(course))
		if err != nil {
			return err
		}
		for _, key := range append(recordKeys, indexKeys...) {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(recordKeys)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// CountByCourse returns the number of records stored for a course.
func (r *EmbeddingRepository) CountByCourse(ctx context.Context, course core.CourseID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCourseRecordPrefix(course)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Helper methods

// readEmbeddingRecord reads an embedding record from the transaction.
func (r *EmbeddingRepository) readEmbeddingRecord(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
		return unmarshalErr
	})
	return record, err
}

// lessonRecordIDs collects the record IDs in a lesson's index.
func (r *EmbeddingRepository) lessonRecordIDs(tx *badger.Txn, course core.CourseID, lesson string) ([]core.ID, error) {
	var ids []core.ID
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeLessonPrefix(course, lesson)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// collectKeys gathers all keys under a prefix.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
