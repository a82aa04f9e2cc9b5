package postgres

import (
	"fmt"
	"time"

	"github.com/brightpath/coursemem/core"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// embeddingRecord is the GORM model backing core.EmbeddingRecord.
// IDs are the uint64 content hashes reinterpreted as int64, since Postgres
// has no unsigned 64-bit type; the conversion is a pure bit reinterpretation
// and loses nothing.
type embeddingRecord struct {
	Id        int64             `gorm:"primaryKey"`
	CourseId  int64             `gorm:"not null;index:idx_embedding_records_course;index:idx_embedding_records_lesson,priority:1"`
	LessonId  string            `gorm:"type:text;not null;index:idx_embedding_records_lesson,priority:2"`
	Ordinal   int               `gorm:"default:0"`
	Content   string            `gorm:"type:text"`
	Embedding pgvector.Vector   `gorm:"type:vector(768)"` // platform-wide embedding dimension
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (embeddingRecord) TableName() string {
	return "embedding_records"
}

func toModel(record *core.EmbeddingRecord) *embeddingRecord {
	m := &embeddingRecord{
		Id:        int64(record.Id),
		CourseId:  int64(record.Course),
		LessonId:  record.Lesson,
		Ordinal:   record.Ordinal,
		Content:   record.Content,
		Embedding: pgvector.NewVector(record.Vector),
		CreatedAt: record.InsertedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if len(record.Metadata) > 0 {
		m.Metadata = make(datatypes.JSONMap, len(record.Metadata))
		for k, v := range record.Metadata {
			m.Metadata[k] = v
		}
	}
	return m
}

func toRecord(m *embeddingRecord) *core.EmbeddingRecord {
	record := &core.EmbeddingRecord{
		Id:         core.ID(uint64(m.Id)),
		Course:     core.CourseID(uint64(m.CourseId)),
		Lesson:     m.LessonId,
		Ordinal:    m.Ordinal,
		Content:    m.Content,
		Vector:     m.Embedding.Slice(),
		InsertedAt: m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if len(m.Metadata) > 0 {
		record.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			record.Metadata[k] = fmt.Sprint(v)
		}
	}
	return record
}
