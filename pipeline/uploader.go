package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lessonvec/cache"
	"github.com/poiesic/lessonvec/index"
)

// UploaderConfig holds configuration for the batch uploader.
type UploaderConfig struct {
	// BatchSize is the maximum number of vectors per bulk-insert request.
	// Must not exceed the remote index's per-request limit.
	BatchSize int

	// MaxRetries is the number of additional attempts after a failed
	// insert; a batch is tried MaxRetries+1 times in total.
	MaxRetries int

	// RetryDelay is the fixed wait between attempts of the same batch.
	RetryDelay time.Duration

	// BatchPause is the fixed wait between successive batches,
	// independent of the retry delay.
	BatchPause time.Duration
}

// DefaultUploaderConfig returns an UploaderConfig with sensible defaults.
func DefaultUploaderConfig() *UploaderConfig {
	return &UploaderConfig{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		BatchPause: 1 * time.Second,
	}
}

// Validate checks the configuration.
func (c *UploaderConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("uploader config: BatchSize must be greater than 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("uploader config: MaxRetries cannot be negative")
	}
	if c.RetryDelay < 0 || c.BatchPause < 0 {
		return fmt.Errorf("uploader config: delays cannot be negative")
	}
	return nil
}

// Uploader pushes cached vectors to the remote index in bounded-size
// batches. It reads the cache but never mutates it.
type Uploader struct {
	inserter index.Inserter
	config   *UploaderConfig
	clock    Clock
	progress io.Writer
	logger   *slog.Logger
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithUploaderClock sets the clock used for retry and inter-batch waits.
func WithUploaderClock(clock Clock) UploaderOption {
	return func(u *Uploader) {
		u.clock = clock
	}
}

// WithUploaderLogger sets a custom logger.
func WithUploaderLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUploader creates a batch uploader.
// progress: where to write per-batch progress output (typically os.Stderr)
func NewUploader(inserter index.Inserter, config *UploaderConfig, progress io.Writer, opts ...UploaderOption) (*Uploader, error) {
	if inserter == nil {
		return nil, ErrInserterRequired
	}
	if config == nil {
		config = DefaultUploaderConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	u := &Uploader{
		inserter: inserter,
		config:   config,
		clock:    NewClock(),
		progress: progress,
		logger:   slog.Default().With("component", "uploader"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// UploadAll partitions the cached ids, in insertion order, into batches
// of at most BatchSize and bulk-inserts each batch.
//
// Each batch is retried as a whole with a fixed delay; after MaxRetries
// additional attempts every id in the batch is reported failed. No
// partial-batch success is assumed. The remote index upserts by id, so
// replaying a batch on a later run is safe.
//
// The returned report is valid even when an error is returned; the only
// error path is context cancellation.
func (u *Uploader) UploadAll(ctx context.Context, store *cache.Store) (*Report, error) {
	report := &Report{}

	ids := store.Ids()
	if len(ids) == 0 {
		u.logger.Info("nothing to upload, cache is empty")
		return report, nil
	}

	batches := partitionIds(ids, u.config.BatchSize)
	u.logger.Info("starting vector upload", "vectors", len(ids), "batches", len(batches))

	tracker := NewTracker(u.progress, len(ids), u.clock)
	tracker.Start()
	defer tracker.Finish()

	for number, batchIds := range batches {
		vectors := make([]index.Vector, 0, len(batchIds))
		for _, id := range batchIds {
			entry, ok := store.Get(id)
			if !ok {
				// Ids came from the store; absence means a programming error.
				return report, fmt.Errorf("cache entry vanished for id %s", id)
			}
			vectors = append(vectors, index.Vector{
				Id:       id,
				Values:   entry.Vector,
				Metadata: entry.Metadata.Map(),
			})
		}

		report.Attempted += len(batchIds)

		err := u.uploadBatch(ctx, vectors)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			report.FailedIds = append(report.FailedIds, batchIds...)
			u.logger.Error("batch failed after retries", "batch", number+1, "size", len(batchIds), "err", err)
			tracker.Batch(number+1, len(batchIds), "FAILED")
		} else {
			report.Succeeded += len(batchIds)
			tracker.Batch(number+1, len(batchIds), "inserted")
		}

		if number < len(batches)-1 {
			if err := u.clock.Sleep(ctx, u.config.BatchPause); err != nil {
				return report, err
			}
		}
	}

	u.logger.Info("vector upload complete",
		"inserted", report.Succeeded, "failed", report.Failed())
	return report, nil
}

// uploadBatch sends one batch with a bounded fixed-delay retry loop.
func (u *Uploader) uploadBatch(ctx context.Context, vectors []index.Vector) error {
	return RetryFixed(ctx, func() error {
		return u.inserter.InsertVectors(ctx, vectors)
	}, u.config.MaxRetries+1, u.config.RetryDelay, u.clock)
}

// partitionIds slices ids into runs of at most size, preserving order.
func partitionIds(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
