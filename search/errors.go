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


package search

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrProviderRequired is returned when an embedding provider is not provided.
	ErrProviderRequired = errors.New("embedding provider required")

	// ErrEmptyQuery is returned when the search query is empty.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrCourseRequired is returned when no course is given to scope the search.
	ErrCourseRequired = errors.New("course required")
)
