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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRequest indicates an IngestionRequest failed validation.
	ErrInvalidRequest = errors.New("invalid ingestion request")

	// ErrInvalidRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidRecord = errors.New("invalid embedding record")

	// ErrCourseRequired indicates the Course field is missing.
	ErrCourseRequired = errors.New("course id is required")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyVector indicates the Vector field is empty.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")
)
