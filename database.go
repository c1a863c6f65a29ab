// Copyright 2025 Poiesic Systems
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


package brainbase

import (
	"io"
	"log/slog"

	"github.com/poiesic/brainbase/ai"
	"github.com/poiesic/brainbase/ai/openai"
	"github.com/poiesic/brainbase/ingestion"
	"github.com/poiesic/brainbase/rebuild"
	"github.com/poiesic/brainbase/search"
	"github.com/poiesic/brainbase/storage"
	"github.com/poiesic/brainbase/storage/badger"
)

// Database is the root handle on the embedding subsystem: one storage
// backend, its repository, and the embedding provider. Service values
// (Indexer, Searcher, Sweeper) are built from it.
type Database struct {
	backend  *badger.Backend
	repo     storage.EmbeddingRepository
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Used by tests with the mock provider.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all records in memory instead of on disk.
func WithInMemoryStorage() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the embedding store at filePath and wires the provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		repo:     repo,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) Repository() storage.EmbeddingRepository {
	return db.repo
}

func (db *Database) NewIndexer(opts ...ingestion.Option) (*ingestion.Indexer, error) {
	return ingestion.NewIndexer(db.repo, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.repo, db.provider, opts...)
}

// NewSweeper builds a rebuild sweeper over the given content source.
// progress may be nil to discard progress output.
func (db *Database) NewSweeper(source rebuild.ContentSource, config *rebuild.Config, progress io.Writer) (*rebuild.Sweeper, error) {
	indexer, err := db.NewIndexer()
	if err != nil {
		return nil, err
	}
	return rebuild.NewSweeper(source, indexer, config, progress)
}
