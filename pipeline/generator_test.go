package pipeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lessonvec/ai/mock"
	"github.com/poiesic/lessonvec/cache"
	"github.com/poiesic/lessonvec/core"
)

func threeLessons() []*core.Lesson {
	return []*core.Lesson{
		{Id: "L01", Title: "Opening Principles", Concept: "center control", Validator: "Morphy", Phase: "opening", ModuleId: 1},
		{Id: "L02", Title: "Pins", Concept: "pin", Validator: "Tal", Phase: "middlegame", ModuleId: 2},
		{Id: "L03", Title: "Rook Endings", Concept: "lucena", Validator: "Capablanca", Phase: "endgame", ModuleId: 3},
	}
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(filepath.Join(t.TempDir(), "lesson_vectors.json"))
}

func newTestGenerator(t *testing.T, store *cache.Store, embedder *mock.Embedder, config *GeneratorConfig, clock Clock) *Generator {
	t.Helper()
	if config == nil {
		config = &GeneratorConfig{BatchSize: 10, RequestsPerMinute: 50, FlushEvery: 20}
	}
	if clock == nil {
		clock = newFakeClock()
	}
	gen, err := NewGenerator(store, embedder, config, io.Discard, WithGeneratorClock(clock))
	require.NoError(t, err)
	return gen
}

func TestEmbedAll_EmptyCache(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	gen := newTestGenerator(t, store, embedder, nil, nil)

	report, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Cached)
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, 3, store.Len())

	entry, ok := store.Get("L01")
	require.True(t, ok)
	assert.Len(t, entry.Vector, 4)
	assert.Equal(t, core.CanonicalText(threeLessons()[0]), entry.Text)
	assert.Equal(t, core.ContentHash(entry.Text), entry.TextHash)
	assert.Equal(t, "opening", entry.Metadata.Phase)
}

func TestEmbedAll_CacheHitSkipped(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	gen := newTestGenerator(t, store, embedder, nil, nil)

	lessons := threeLessons()

	// Pre-populate lesson 2 with a distinguishable vector.
	text := core.CanonicalText(lessons[1])
	marker := []float32{9, 9, 9, 9}
	store.Put("L02", &cache.Entry{
		Vector:   marker,
		Text:     text,
		TextHash: core.ContentHash(text),
		Metadata: lessons[1].Metadata(),
	})

	report, err := gen.EmbedAll(context.Background(), lessons, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Cached)
	assert.Equal(t, 0, report.Failed())

	entry, _ := store.Get("L02")
	assert.Equal(t, marker, entry.Vector, "cached vector must be untouched")
}

func TestEmbedAll_IdempotentSkip(t *testing.T) {
	store := newTestStore(t)
	first := mock.NewEmbedder()
	first.Dimensions = 4
	gen := newTestGenerator(t, store, first, nil, nil)

	_, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)

	second := mock.NewEmbedder()
	second.Dimensions = 4
	gen = newTestGenerator(t, store, second, nil, nil)

	report, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, second.CallCount(), "populated cache must cause zero remote calls")
	assert.Equal(t, 3, report.Cached)
	assert.Equal(t, 0, report.Attempted)
}

func TestEmbedAll_PartialFailureIsolation(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	failingText := core.CanonicalText(threeLessons()[1])
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == failingText {
			return nil, errors.New("model rejected input")
		}
		return mock.DeterministicVector(text, 4), nil
	}
	gen := newTestGenerator(t, store, embedder, nil, nil)

	report, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err, "one failed record must never abort the run")

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, []string{"L02"}, report.FailedIds)

	_, ok := store.Get("L02")
	assert.False(t, ok, "failed record must not poison the cache")
	_, ok = store.Get("L01")
	assert.True(t, ok)
	_, ok = store.Get("L03")
	assert.True(t, ok)
}

func TestEmbedAll_ForceRegenerates(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	gen := newTestGenerator(t, store, embedder, nil, nil)

	_, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)
	embedder.Reset()

	report, err := gen.EmbedAll(context.Background(), threeLessons(), true)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Cached)
	assert.Equal(t, 3, embedder.CallCount())
}

func TestEmbedAll_StaleHashRegenerated(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	gen := newTestGenerator(t, store, embedder, nil, nil)

	lessons := threeLessons()

	// Entry generated from an older canonicalization.
	store.Put("L01", &cache.Entry{
		Vector:   []float32{1, 2, 3, 4},
		Text:     "old canonical form",
		TextHash: core.ContentHash("old canonical form"),
		Metadata: lessons[0].Metadata(),
	})

	report, err := gen.EmbedAll(context.Background(), lessons[:1], false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Cached)

	entry, _ := store.Get("L01")
	assert.Equal(t, core.CanonicalText(lessons[0]), entry.Text)
}

func TestEmbedAll_ThrottlePause(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	clock := newFakeClock()
	config := &GeneratorConfig{BatchSize: 2, RequestsPerMinute: 60, FlushEvery: 20}
	gen := newTestGenerator(t, store, embedder, config, clock)

	lessons := []*core.Lesson{}
	for _, id := range []string{"L01", "L02", "L03", "L04", "L05"} {
		lessons = append(lessons, &core.Lesson{Id: id, Title: "T " + id, Concept: "c"})
	}

	_, err := gen.EmbedAll(context.Background(), lessons, false)
	require.NoError(t, err)

	// 2 calls per window at 60 rpm: a 2s pause after calls 2 and 4.
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, clock.sleeps)
}

func TestEmbedAll_CachedRecordsConsumeNoQuota(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4
	clock := newFakeClock()
	config := &GeneratorConfig{BatchSize: 2, RequestsPerMinute: 60, FlushEvery: 20}
	gen := newTestGenerator(t, store, embedder, config, clock)

	_, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)
	clock.sleeps = nil

	// Fully cached run: no remote calls, so no throttle pauses either.
	_, err = gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)
	assert.Empty(t, clock.sleeps)
}

func TestEmbedAll_PeriodicFlush(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4

	// Observe the on-disk snapshot from inside the third call: the
	// periodic flush after the second call must already be durable.
	var snapshotLen int
	calls := 0
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 3 {
			observer := cache.NewStore(store.Path())
			observer.Load()
			snapshotLen = observer.Len()
		}
		return mock.DeterministicVector(text, 4), nil
	}

	config := &GeneratorConfig{BatchSize: 10, RequestsPerMinute: 600, FlushEvery: 2}
	gen := newTestGenerator(t, store, embedder, config, nil)

	_, err := gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshotLen)

	// Final flush persists everything.
	final := cache.NewStore(store.Path())
	final.Load()
	assert.Equal(t, 3, final.Len())
}

func TestEmbedAll_ContextCanceledFlushesProgress(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return mock.DeterministicVector(text, 4), nil
	}
	gen := newTestGenerator(t, store, embedder, nil, nil)

	report, err := gen.EmbedAll(ctx, threeLessons(), false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, report.Succeeded)

	reloaded := cache.NewStore(store.Path())
	reloaded.Load()
	assert.Equal(t, 2, reloaded.Len(), "completed work must survive cancellation")
}

func TestEmbedAll_ProgressOutput(t *testing.T) {
	store := newTestStore(t)
	embedder := mock.NewEmbedder()
	embedder.Dimensions = 4

	var buf strings.Builder
	gen, err := NewGenerator(store, embedder, nil, &buf, WithGeneratorClock(newFakeClock()))
	require.NoError(t, err)

	_, err = gen.EmbedAll(context.Background(), threeLessons(), false)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[1/3] L01: embedded")
	assert.Contains(t, buf.String(), "[3/3] L03: embedded")
}

func TestNewGenerator_Validation(t *testing.T) {
	embedder := mock.NewEmbedder()

	_, err := NewGenerator(nil, embedder, nil, io.Discard)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewGenerator(newTestStore(t), nil, nil, io.Discard)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewGenerator(newTestStore(t), embedder, &GeneratorConfig{BatchSize: 0, RequestsPerMinute: 50, FlushEvery: 20}, io.Discard)
	assert.Error(t, err)
}
