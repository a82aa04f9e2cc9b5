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


// Package storage provides the storage abstraction layer for coursemem.
//
// This package defines the repository interface that decouples storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, PostgreSQL with pgvector, in-memory, etc.) to be used
// interchangeably.
//
// # Backends
//
//   - storage/badger: embedded BadgerDB backend, the default for
//     single-node deployments and tests (in-memory mode)
//   - storage/postgres: PostgreSQL backend using the pgvector extension,
//     for deployments that already run Postgres
//
// # Course Scoping
//
// Every operation on EmbeddingRepository is scoped to a course. Similarity
// search in particular never crosses course boundaries; backends enforce
// this structurally (key prefixes in BadgerDB, a WHERE clause in Postgres)
// rather than filtering after the fact.
//
// # Usage
//
// Create a repository instance:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewEmbeddingRepository(backend, 768)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository(768)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
