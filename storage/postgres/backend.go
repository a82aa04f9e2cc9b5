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


package postgres

import (
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Backend wraps a GORM connection to a Postgres database with the pgvector
// extension enabled.
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenBackend connects to Postgres, enables the pgvector extension and
// migrates the schema. The target database must allow CREATE EXTENSION.
func OpenBackend(dsn string) (*Backend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&embeddingRecord{}); err != nil {
		return nil, err
	}

	// HNSW index for approximate nearest neighbor search with cosine distance.
	// Sequential scan still works without it, just slower.
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_embedding_records_vector ON embedding_records USING hnsw (embedding vector_cosine_ops)").Error; err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default().With("component", "postgres-backend"),
	}, nil
}

// Close closes the underlying database connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
