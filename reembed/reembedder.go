// Copyright 2026 Brightpath Learning
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of a course's records.
type Reembedder struct {
	repo      storage.EmbeddingRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.EmbeddingRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewRecordIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}, nil
}

// Run reembeds every record of the given course with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, course core.CourseID) error {
	if course == 0 {
		return ErrCourseRequired
	}

	totalRecords, err := r.repo.CountByCourse(ctx, course)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if totalRecords == 0 {
		fmt.Fprintf(r.progress, "No records found for course %d (0 records)\n", course)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
		totalRecords, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, totalRecords, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	// Process all records in batches
	err = r.iterator.ForEach(ctx, course, func(records []*core.EmbeddingRecord) error {
		// Process this batch
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Update progress
		processed += len(records)
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		totalRecords, elapsed.Round(time.Second), float64(totalRecords)/elapsed.Seconds())

	return nil
}
