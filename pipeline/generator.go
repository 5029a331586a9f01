package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lessonvec/ai"
	"github.com/poiesic/lessonvec/cache"
	"github.com/poiesic/lessonvec/core"
)

// GeneratorConfig holds configuration for the embedding generator.
type GeneratorConfig struct {
	// BatchSize is the number of remote calls in one throttle window.
	BatchSize int

	// RequestsPerMinute is the maximum sustained request rate. After
	// every BatchSize remote calls the generator pauses for
	// BatchSize/RequestsPerMinute minutes.
	RequestsPerMinute int

	// FlushEvery persists the cache after every N remote calls, bounding
	// lost work on abrupt termination. The final flush always happens.
	FlushEvery int
}

// DefaultGeneratorConfig returns a GeneratorConfig with the rate limits
// the public embedding service tolerates.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		BatchSize:         10,
		RequestsPerMinute: 50,
		FlushEvery:        20,
	}
}

// Validate checks the configuration.
func (c *GeneratorConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("generator config: BatchSize must be greater than 0")
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("generator config: RequestsPerMinute must be greater than 0")
	}
	if c.FlushEvery <= 0 {
		return fmt.Errorf("generator config: FlushEvery must be greater than 0")
	}
	return nil
}

// Generator turns lessons into cached embedding vectors, one remote
// call at a time. The cache store is owned exclusively by the generator
// during a run.
type Generator struct {
	store    *cache.Store
	embedder ai.Embedder
	config   *GeneratorConfig
	clock    Clock
	progress io.Writer
	logger   *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorClock sets the clock used for throttle pauses.
func WithGeneratorClock(clock Clock) GeneratorOption {
	return func(g *Generator) {
		g.clock = clock
	}
}

// WithGeneratorLogger sets a custom logger.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates an embedding generator.
// progress: where to write per-item progress output (typically os.Stderr)
func NewGenerator(store *cache.Store, embedder ai.Embedder, config *GeneratorConfig, progress io.Writer, opts ...GeneratorOption) (*Generator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	g := &Generator{
		store:    store,
		embedder: embedder,
		config:   config,
		clock:    NewClock(),
		progress: progress,
		logger:   slog.Default().With("component", "generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// EmbedAll embeds every lesson that has no fresh cache entry, in the
// order supplied by the caller.
//
// A cache entry is fresh when its stored content hash matches the hash
// of the lesson's current canonical text; stale entries are regenerated
// even without force. A failed embedding call never aborts the run and
// never writes a cache entry, so the next run retries it by default.
//
// The returned report is valid even when an error is returned: the
// error path is context cancellation or a failed final flush, after
// partial work that the report accounts for.
func (g *Generator) EmbedAll(ctx context.Context, lessons []*core.Lesson, force bool) (*Report, error) {
	report := &Report{}

	g.logger.Info("starting embedding generation", "lessons", len(lessons), "force", force)

	tracker := NewTracker(g.progress, len(lessons), g.clock)
	tracker.Start()

	calls := 0
	for _, lesson := range lessons {
		select {
		case <-ctx.Done():
			return report, g.finish(report, tracker, ctx.Err())
		default:
		}

		text := core.CanonicalText(lesson)
		hash := core.ContentHash(text)

		if !force {
			if entry, ok := g.store.Get(lesson.Id); ok && entry.TextHash == hash {
				report.Cached++
				tracker.Item(lesson.Id, "cached")
				continue
			}
		}

		report.Attempted++
		calls++

		vector, err := g.embedder.EmbedText(ctx, text)
		if err != nil {
			report.FailedIds = append(report.FailedIds, lesson.Id)
			g.logger.Error("embedding failed", "lesson", lesson.Id, "err", err)
			tracker.Item(lesson.Id, "FAILED")
		} else {
			g.store.Put(lesson.Id, &cache.Entry{
				Vector:   vector,
				Text:     text,
				TextHash: hash,
				Metadata: lesson.Metadata(),
			})
			report.Succeeded++
			tracker.Item(lesson.Id, "embedded")
		}

		if calls%g.config.FlushEvery == 0 {
			if err := g.store.Flush(); err != nil {
				// Periodic durability is best effort, the final flush is not.
				g.logger.Warn("periodic cache flush failed", "err", err)
			}
		}

		if calls%g.config.BatchSize == 0 {
			pause := g.throttlePause()
			g.logger.Info("rate limit pause", "calls", calls, "pause", pause)
			if err := g.clock.Sleep(ctx, pause); err != nil {
				return report, g.finish(report, tracker, err)
			}
		}
	}

	return report, g.finish(report, tracker, nil)
}

// finish flushes the cache and closes out progress. The flush runs on
// every exit path so an interrupted run keeps its completed work.
func (g *Generator) finish(report *Report, tracker *Tracker, runErr error) error {
	if err := g.store.Flush(); err != nil {
		g.logger.Error("final cache flush failed", "err", err)
		if runErr == nil {
			runErr = fmt.Errorf("final cache flush: %w", err)
		}
	}
	tracker.Finish()
	g.logger.Info("embedding generation complete",
		"embedded", report.Succeeded, "cached", report.Cached, "failed", report.Failed())
	return runErr
}

func (g *Generator) throttlePause() time.Duration {
	return time.Duration(float64(g.config.BatchSize) / float64(g.config.RequestsPerMinute) * float64(time.Minute))
}
