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


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/ai/openai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/ingestion"
	"github.com/brightpath/coursemem/reembed"
	"github.com/brightpath/coursemem/search"
	"github.com/brightpath/coursemem/storage"
	"github.com/brightpath/coursemem/storage/badger"
	"github.com/brightpath/coursemem/storage/postgres"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env if present; flags and real env take precedence
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "coursemem",
		Usage: "Course transcript embedding pipeline and similarity search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk a lesson transcript, embed it and store the vectors",
				ArgsUsage: "[transcript file, defaults to stdin]",
				Action:    ingestCommand,
				Flags: append(append(storageFlags(), embeddingFlags()...),
					&cli.Uint64Flag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course identifier the transcript belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "lesson",
						Aliases: []string{"s"},
						Usage:   "Lesson identifier within the course",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk size in bytes",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "no-replace",
						Usage: "Keep existing records of the lesson instead of replacing them",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Find transcript chunks similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(append(storageFlags(), embeddingFlags()...),
					&cli.Uint64Flag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course to search in",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "lesson",
						Aliases: []string{"s"},
						Usage:   "Restrict results to a single lesson",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum cosine similarity for a result",
						Value: float64(search.DefaultMinSimilarity),
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all records of a course with new embeddings",
				Action: reembedCommand,
				Flags: append(append(storageFlags(), embeddingFlags()...),
					&cli.Uint64Flag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course whose records should be reembedded",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:   "purge",
				Usage:  "Delete stored embeddings for a course or a single lesson",
				Action: purgeCommand,
				Flags: append(storageFlags(),
					&cli.Uint64Flag{
						Name:     "course",
						Aliases:  []string{"c"},
						Usage:    "Course to purge",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "lesson",
						Aliases: []string{"s"},
						Usage:   "Purge only this lesson instead of the whole course",
					},
					&cli.IntFlag{
						Name:  "dimensions",
						Usage: "Embedding dimensionality of the store",
						Value: ai.DefaultConfig().Dimensions,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			EnvVars: []string{"COURSEMEM_DB"},
		},
		&cli.StringFlag{
			Name:    "pg-dsn",
			Usage:   "Postgres DSN; when set, pgvector is used instead of BadgerDB",
			EnvVars: []string{"COURSEMEM_PG_DSN"},
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"COURSEMEM_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"COURSEMEM_EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:    "dimensions",
			Usage:   "Embedding model output dimensionality",
			Value:   ai.DefaultConfig().Dimensions,
			EnvVars: []string{"COURSEMEM_EMBEDDING_DIMENSIONS"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the embedding service",
			Value:   "none",
			EnvVars: []string{"COURSEMEM_API_TOKEN"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithDimensions(c.Int("dimensions")),
		ai.WithToken(c.String("api-token")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}
	return cfg, nil
}

// openRepository opens the embedding store selected by the storage flags.
// The returned cleanup function closes the repository and its backend.
func openRepository(c *cli.Context, dims int) (storage.EmbeddingRepository, func(), error) {
	if dsn := c.String("pg-dsn"); dsn != "" {
		backend, err := postgres.OpenBackend(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres backend: %w", err)
		}
		repo, err := postgres.NewEmbeddingRepository(backend, dims)
		if err != nil {
			backend.Close()
			return nil, nil, fmt.Errorf("failed to create repository: %w", err)
		}
		return repo, func() {
			repo.Close()
			backend.Close()
		}, nil
	}

	dbPath := c.String("db")
	if dbPath == "" {
		return nil, nil, fmt.Errorf("either --db or --pg-dsn is required")
	}
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo, err := badger.NewEmbeddingRepository(backend, dims)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return repo, func() {
		repo.Close()
		backend.Close()
	}, nil
}

func readTranscript(c *cli.Context) (string, error) {
	if path := c.Args().First(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript from stdin: %w", err)
	}
	return string(data), nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	transcript, err := readTranscript(c)
	if err != nil {
		return err
	}

	repo, cleanup, err := openRepository(c, aiConfig.Dimensions)
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	pipeline, err := ingestion.NewPipeline(repo, provider,
		ingestion.WithMaxChunkSize(c.Int("chunk-size")),
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithLessonReplace(!c.Bool("no-replace")),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, &core.IngestionRequest{
		Transcript: transcript,
		Course:     core.CourseID(c.Uint64("course")),
		Lesson:     c.String("lesson"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Status: %s\n", result.Status)
	fmt.Fprintf(os.Stderr, "Chunks: %d/%d stored\n", result.ChunksProcessed, result.ChunksTotal)
	for _, failure := range result.Failures {
		fmt.Fprintf(os.Stderr, "  chunk %d failed: %s\n", failure.Ordinal, failure.Reason)
	}

	if !result.Success() {
		return fmt.Errorf("ingestion finished with status %s", result.Status)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(c.Args().First())
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	repo, cleanup, err := openRepository(c, aiConfig.Dimensions)
	if err != nil {
		return err
	}
	defer cleanup()

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer provider.Close()

	searcher, err := search.NewSearcher(repo, provider,
		search.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	course := core.CourseID(c.Uint64("course"))
	limit := c.Int("limit")

	var hits []*core.ScoredRecord
	if lesson := c.String("lesson"); lesson != "" {
		hits, err = searcher.FindSimilarInLesson(ctx, course, lesson, query, limit)
	} else {
		hits, err = searcher.FindSimilar(ctx, course, query, limit)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No matching chunks found.")
		return nil
	}

	for i, hit := range hits {
		fmt.Printf("%d. [%.3f] lesson=%s ordinal=%d\n", i+1, hit.Score, hit.Record.Lesson, hit.Record.Ordinal)
		fmt.Printf("   %s\n", hit.Record.Content)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	repo, cleanup, err := openRepository(c, aiConfig.Dimensions)
	if err != nil {
		return err
	}
	defer cleanup()

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder, err := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.Model)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx, core.CourseID(c.Uint64("course"))); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func purgeCommand(c *cli.Context) error {
	ctx := context.Background()

	repo, cleanup, err := openRepository(c, c.Int("dimensions"))
	if err != nil {
		return err
	}
	defer cleanup()

	course := core.CourseID(c.Uint64("course"))

	var deleted int
	if lesson := c.String("lesson"); lesson != "" {
		deleted, err = repo.DeleteByLesson(ctx, course, lesson)
	} else {
		deleted, err = repo.DeleteByCourse(ctx, course)
	}
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted %d records\n", deleted)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
