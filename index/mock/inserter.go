package mock

import (
	"context"

	"github.com/poiesic/lessonvec/index"
)

// Inserter is a test double for index.Inserter.
// It records every batch and allows failure injection per call.
type Inserter struct {
	// InsertFunc is called by InsertVectors if set.
	// If nil, every insert succeeds.
	InsertFunc func(ctx context.Context, vectors []index.Vector) error

	batches [][]index.Vector
}

// NewInserter creates a mock inserter that accepts every batch.
// Note: returns the concrete type to allow test assertions.
func NewInserter() *Inserter {
	return &Inserter{}
}

// InsertVectors records the batch and applies the injected behavior.
func (m *Inserter) InsertVectors(ctx context.Context, vectors []index.Vector) error {
	batch := make([]index.Vector, len(vectors))
	copy(batch, vectors)
	m.batches = append(m.batches, batch)

	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, vectors)
	}
	return nil
}

// Batches returns every batch received, in order.
func (m *Inserter) Batches() [][]index.Vector {
	return m.batches
}

// CallCount returns the number of InsertVectors calls.
func (m *Inserter) CallCount() int {
	return len(m.batches)
}

// Reset clears recorded state and injected behavior.
func (m *Inserter) Reset() {
	m.batches = nil
	m.InsertFunc = nil
}
