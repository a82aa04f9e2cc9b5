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


package coursemem

import (
	"io"
	"log/slog"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/ai/openai"
	"github.com/brightpath/coursemem/ingestion"
	"github.com/brightpath/coursemem/reembed"
	"github.com/brightpath/coursemem/search"
	"github.com/brightpath/coursemem/storage"
	"github.com/brightpath/coursemem/storage/badger"
)

type Database struct {
	backend  *badger.Backend
	repo     storage.EmbeddingRepository
	provider ai.EmbeddingProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.EmbeddingProvider
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider replaces the default OpenAI-compatible provider. Intended for
// tests and offline tooling.
func WithProvider(provider ai.EmbeddingProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create embedding provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	// Create embedding repository at the provider's dimensionality
	repo, err := badger.NewEmbeddingRepository(backend, provider.Dimensions())
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		repo:     repo,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing embedding provider", "err", err)
	}

	// Close repository
	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) EmbeddingRepository() storage.EmbeddingRepository {
	return db.repo
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.repo, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repo, db.provider, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repo, db.provider.Embedder(), config, progress)
}
