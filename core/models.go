package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted embedding records.
// It is derived deterministically from record content so that re-ingesting
// identical content produces identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CourseID identifies the course an embedding record belongs to.
type CourseID uint64

// TextChunk is a contiguous, sentence-aligned piece of a transcript produced
// by the segmenter. Chunks are ephemeral: they exist only between segmentation
// and the write of their embedding record.
type TextChunk struct {
	Text    string
	Ordinal int // position of the chunk within the transcript, starting at 0
}

// IngestionRequest describes one transcript ingestion call.
// Course is required; Lesson is optional and scopes the records for
// replace-on-reingest. Metadata is merged into every record written.
type IngestionRequest struct {
	Transcript string
	Course     CourseID
	Lesson     string
	Metadata   map[string]string
}

// EmbeddingRecord is the durable, similarity-searchable form of one transcript
// chunk. The original chunk text is kept so query-time collaborators can cite
// and highlight the source passage.
type EmbeddingRecord struct {
	Id         ID
	Course     CourseID
	Lesson     string // empty when the record is not tied to a lesson
	Ordinal    int    // chunk position within the source transcript
	Content    string
	Vector     []float32 // unit-normalized embedding (populated before persistence)
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Identity returns the string the record's deterministic ID is derived from.
// Two records with the same course, lesson, ordinal and content are the same
// record.
func (r *EmbeddingRecord) Identity() string {
	return fmt.Sprintf("(%d,%s,%d,%s)", r.Course, r.Lesson, r.Ordinal, r.Content)
}

// ScoredRecord is an embedding record paired with its similarity score from a
// vector search.
type ScoredRecord struct {
	Record *EmbeddingRecord
	Score  float32
}
