package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/poiesic/lessonvec/cache"
	"github.com/poiesic/lessonvec/core"
)

// Pipeline sequences the embedding generator and the batch uploader
// over a shared cache store and reports a combined summary.
type Pipeline struct {
	store     *cache.Store
	generator *Generator
	uploader  *Uploader
	progress  io.Writer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline orchestrator.
func NewPipeline(store *cache.Store, generator *Generator, uploader *Uploader, progress io.Writer) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if generator == nil {
		return nil, ErrEmbedderRequired
	}
	if uploader == nil {
		return nil, ErrInserterRequired
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Pipeline{
		store:     store,
		generator: generator,
		uploader:  uploader,
		progress:  progress,
		logger:    slog.Default().With("component", "pipeline"),
	}, nil
}

// Run executes the full pipeline: load cache, generate missing
// embeddings, upload the cache to the remote index, summarize.
//
// Preconditions are checked before any remote call: a non-empty, valid
// lesson list and a creatable cache directory. A precondition failure
// aborts without consuming remote-service quota.
//
// Remote failures after the configured retries do not produce an error;
// they surface as failed ids in the summary so the operator can re-run.
func (p *Pipeline) Run(ctx context.Context, lessons []*core.Lesson, force bool) (*Summary, error) {
	if len(lessons) == 0 {
		return nil, ErrNoLessons
	}
	if err := core.ValidateLessons(lessons); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p.store.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("cache directory not creatable: %w", err)
	}

	summary := &Summary{RunId: uuid.NewString()}
	p.logger.Info("starting pipeline run", "run", summary.RunId, "lessons", len(lessons), "force", force)

	p.store.Load()

	embedReport, err := p.generator.EmbedAll(ctx, lessons, force)
	summary.Embed = embedReport
	if err != nil {
		return summary, fmt.Errorf("embedding stage: %w", err)
	}

	uploadReport, err := p.uploader.UploadAll(ctx, p.store)
	summary.Upload = uploadReport
	if err != nil {
		return summary, fmt.Errorf("upload stage: %w", err)
	}

	summary.Write(p.progress)
	return summary, nil
}
