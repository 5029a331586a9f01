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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/lessonvec/ai"
	"github.com/poiesic/lessonvec/ai/openai"
	"github.com/poiesic/lessonvec/ai/workersai"
	"github.com/poiesic/lessonvec/cache"
	"github.com/poiesic/lessonvec/core"
	"github.com/poiesic/lessonvec/index"
	"github.com/poiesic/lessonvec/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "lessonvec",
		Usage: "Embed curriculum lessons and load them into a remote vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "embed",
				Usage:  "Generate embeddings for all lessons, using the cache to skip fresh entries",
				Action: embedCommand,
				Flags:  append(credentialFlags(), append(embedFlags(), cacheFlag())...),
			},
			{
				Name:   "upload",
				Usage:  "Bulk-insert cached vectors into the remote index",
				Action: uploadCommand,
				Flags:  append(credentialFlags(), append(uploadFlags(), cacheFlag())...),
			},
			{
				Name:   "run",
				Usage:  "Run the full pipeline: embed, then upload",
				Action: runCommand,
				Flags:  append(credentialFlags(), append(embedFlags(), append(uploadFlags(), cacheFlag())...)...),
			},
			{
				Name:      "query",
				Usage:     "Run a free-text semantic query against the deployed query service",
				ArgsUsage: "<query text>",
				Action:    queryCommand,
				Flags:     queryFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "account-id",
			Usage:   "Remote account identifier",
			EnvVars: []string{"CLOUDFLARE_ACCOUNT_ID"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API bearer credential",
			EnvVars: []string{"CLOUDFLARE_API_TOKEN"},
		},
	}
}

// cacheFlag is shared by every command that reads or writes the
// embedding cache document.
func cacheFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "cache",
		Usage: "Path to the embedding cache document",
		Value: "data/embeddings/lesson_vectors.json",
	}
}

func embedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "curriculum",
			Usage: "Path to the curriculum document",
			Value: "data/curriculum.json",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Regenerate embeddings even for fresh cache entries",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (workersai, openai)",
			Value: string(ai.ProviderWorkersAI),
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service base URL (defaults per provider)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Expected embedding dimensionality",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Remote calls per rate-limit window",
			Value: 10,
		},
		&cli.IntFlag{
			Name:  "requests-per-minute",
			Usage: "Maximum sustained embedding request rate",
			Value: 50,
		},
		&cli.IntFlag{
			Name:  "flush-every",
			Usage: "Persist the cache every N remote calls",
			Value: 20,
		},
	}
}

func uploadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "index-name",
			Usage: "Target vector index name",
			Value: "fractal-curriculum-prod",
		},
		&cli.IntFlag{
			Name:  "insert-batch-size",
			Usage: "Vectors per bulk-insert request",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Additional attempts for a failed batch",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Fixed delay between attempts of the same batch",
			Value: 5 * time.Second,
		},
		&cli.DurationFlag{
			Name:  "batch-pause",
			Usage: "Pause between successive batches",
			Value: 1 * time.Second,
		},
		&cli.StringFlag{
			Name:  "failed-out",
			Usage: "Write failed ids to this JSON file",
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-url",
			Usage:   "Deployed query service URL",
			EnvVars: []string{"CURRICULUM_API_URL"},
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of results to return",
			Value: 5,
		},
		&cli.BoolFlag{
			Name:  "relationships",
			Usage: "Include lesson relationships in results",
			Value: true,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Query request timeout",
			Value: 30 * time.Second,
		},
	}
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	aiCfg := s.aiConfig()
	if err := aiCfg.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	embedder, err := buildEmbedder(aiCfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	curriculum, err := core.LoadCurriculum(s.CurriculumPath)
	if err != nil {
		return err
	}

	store := cache.NewStore(s.CachePath)
	store.Load()

	gen, err := pipeline.NewGenerator(store, embedder, generatorConfig(c), os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Curriculum: %s (%d lessons)\n", s.CurriculumPath, len(curriculum.Lessons))
	fmt.Fprintf(os.Stderr, "Cache: %s\n\n", s.CachePath)

	report, err := gen.EmbedAll(ctx, curriculum.Lessons, c.Bool("force"))
	if report != nil {
		printEmbedReport(report)
	}
	return err
}

func uploadCommand(c *cli.Context) error {
	ctx := context.Background()

	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	indexCfg := s.indexConfig()
	if err := indexCfg.Validate(); err != nil {
		return fmt.Errorf("invalid index configuration: %w", err)
	}

	inserter, err := index.NewClient(indexCfg)
	if err != nil {
		return fmt.Errorf("failed to create index client: %w", err)
	}

	store := cache.NewStore(s.CachePath)
	store.Load()
	if store.Len() == 0 {
		return fmt.Errorf("embedding cache %s is empty; run `lessonvec embed` first", s.CachePath)
	}

	up, err := pipeline.NewUploader(inserter, uploaderConfig(c), os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Index: %s\n", s.IndexName)
	fmt.Fprintf(os.Stderr, "Vectors: %d\n\n", store.Len())

	report, err := up.UploadAll(ctx, store)
	if err != nil {
		return err
	}

	summary := &pipeline.Summary{RunId: uuid.NewString(), Upload: report}
	summary.Write(os.Stderr)
	return writeFailures(c, summary)
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	aiCfg := s.aiConfig()
	if err := aiCfg.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}
	indexCfg := s.indexConfig()
	if err := indexCfg.Validate(); err != nil {
		return fmt.Errorf("invalid index configuration: %w", err)
	}

	embedder, err := buildEmbedder(aiCfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	inserter, err := index.NewClient(indexCfg)
	if err != nil {
		return fmt.Errorf("failed to create index client: %w", err)
	}

	curriculum, err := core.LoadCurriculum(s.CurriculumPath)
	if err != nil {
		return err
	}

	store := cache.NewStore(s.CachePath)

	gen, err := pipeline.NewGenerator(store, embedder, generatorConfig(c), os.Stderr)
	if err != nil {
		return err
	}
	up, err := pipeline.NewUploader(inserter, uploaderConfig(c), os.Stderr)
	if err != nil {
		return err
	}
	p, err := pipeline.NewPipeline(store, gen, up, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Curriculum: %s (%d lessons)\n", s.CurriculumPath, len(curriculum.Lessons))
	fmt.Fprintf(os.Stderr, "Index: %s\n\n", s.IndexName)

	summary, err := p.Run(ctx, curriculum.Lessons, c.Bool("force"))
	if err != nil {
		return err
	}
	return writeFailures(c, summary)
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	s, err := resolveSettings(c)
	if err != nil {
		return err
	}

	client, err := index.NewQueryClient(s.WorkerURL, c.Duration("timeout"))
	if err != nil {
		return err
	}

	resp, err := client.Query(ctx, index.QueryRequest{
		Query:                query,
		TopK:                 c.Int("top-k"),
		IncludeRelationships: c.Bool("relationships"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, result := range resp.Results {
		fmt.Printf("%2d. score=%.4f title=%v concept=%v phase=%v\n",
			i+1, result.Score,
			result.Metadata["title"], result.Metadata["concept"], result.Metadata["phase"])
		if len(result.Relationships) > 0 {
			fmt.Printf("    relationships: %d\n", len(result.Relationships))
		}
	}
	return nil
}

func buildEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewEmbedder(cfg)
	default:
		return workersai.NewEmbedder(cfg)
	}
}

func printEmbedReport(report *pipeline.Report) {
	fmt.Fprintf(os.Stderr, "\nembedding summary: embedded=%d cached=%d failed=%d\n",
		report.Succeeded, report.Cached, report.Failed())
	if report.Failed() > 0 {
		fmt.Fprintf(os.Stderr, "failed ids: %v\n", report.FailedIds)
		fmt.Fprintln(os.Stderr, "re-run `lessonvec embed` to retry, or with --force to regenerate")
	}
}

func writeFailures(c *cli.Context, summary *pipeline.Summary) error {
	path := c.String("failed-out")
	if path == "" {
		return nil
	}
	return summary.WriteFailures(path, time.Now())
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
