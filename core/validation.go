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


package core

import "fmt"

// ValidateIngestionRequest validates an IngestionRequest according to domain rules.
//
// Validation rules:
//   - Request must not be nil
//   - Course must be set
//
// NOT validated:
//   - Transcript (an empty transcript is a legal no-op ingestion, reported as
//     completed with zero chunks rather than rejected)
//   - Lesson (optional)
func ValidateIngestionRequest(req *IngestionRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if req.Course == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrCourseRequired)
	}

	return nil
}

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - Course must be set
//   - Content must not be empty
//   - Vector must not be empty
//
// NOT validated (enforced by the storage layer):
//   - Vector dimensionality (the repository knows the platform dimension)
//   - ID (0 is valid; repositories derive it from Identity())
func ValidateEmbeddingRecord(record *EmbeddingRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Course == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrCourseRequired)
	}

	if record.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContent)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	return nil
}
