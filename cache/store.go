package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/lessonvec/core"
)

// Entry is a cached embedding for a single lesson.
// Text is the exact canonical text the vector was generated from and
// TextHash is its content hash; a hash mismatch against the current
// canonical text marks the entry as stale.
type Entry struct {
	Vector   []float32           `json:"vector"`
	Text     string              `json:"text"`
	TextHash string              `json:"textHash"`
	Metadata core.VectorMetadata `json:"metadata"`
}

// Store is a persistent id→Entry mapping backed by a single JSON
// document. The document is human-inspectable and safe to delete to
// force full regeneration.
//
// The store preserves key insertion order, both in memory and across
// flush/load, so batch partitioning downstream is reproducible. It is
// owned by a single goroutine; the pipeline is sequential by design.
type Store struct {
	path    string
	entries map[string]*Entry
	order   []string
	logger  *slog.Logger
}

// NewStore creates a store backed by the document at path.
// No I/O happens until Load or Flush.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]*Entry),
		logger:  slog.Default().With("component", "cache"),
	}
}

// Path returns the backing document path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted mapping. An absent or unreadable document
// degrades to an empty store with a warning; a corrupt cache must never
// fail the pipeline, it only costs regeneration.
func (s *Store) Load() {
	s.entries = make(map[string]*Entry)
	s.order = nil

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("cache unreadable, regenerating everything", "path", s.path, "err", err)
		}
		return
	}

	entries, order, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("cache corrupt, regenerating everything", "path", s.path, "err", err)
		return
	}

	s.entries = entries
	s.order = order
	s.logger.Info("loaded cached embeddings", "count", len(order), "path", s.path)
}

// Get returns the entry for id, if present.
func (s *Store) Get(id string) (*Entry, bool) {
	entry, ok := s.entries[id]
	return entry, ok
}

// Put upserts an entry. Last write wins; a new id is appended to the
// iteration order, an existing id keeps its position.
func (s *Store) Put(id string, entry *Entry) {
	if _, ok := s.entries[id]; !ok {
		s.order = append(s.order, id)
	}
	s.entries[id] = entry
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Ids returns the cached ids in insertion order.
func (s *Store) Ids() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Flush atomically persists the mapping: the document is written to a
// temporary file in the same directory and renamed over the previous
// snapshot, so a crash mid-flush never corrupts it.
func (s *Store) Flush() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := s.encodeDocument()
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing cache: %w", err)
	}

	s.logger.Debug("flushed cache", "count", len(s.order), "path", s.path)
	return nil
}

// encodeDocument writes the mapping as a JSON object whose keys appear
// in insertion order. encoding/json would sort map keys, which would
// lose the ordering the uploader's partitioning depends on.
func (s *Store) encodeDocument() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, id := range s.order {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")

		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(": ")

		value, err := json.Marshal(s.entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	if len(s.order) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decodeDocument parses the mapping with a token-stream decoder so the
// document's key order is preserved.
func decodeDocument(data []byte) (map[string]*Entry, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("cache document is not a JSON object")
	}

	entries := make(map[string]*Entry)
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		id, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("cache document has a non-string key")
		}

		var entry Entry
		if err := dec.Decode(&entry); err != nil {
			return nil, nil, fmt.Errorf("entry %s: %w", id, err)
		}

		if _, dup := entries[id]; !dup {
			order = append(order, id)
		}
		entries[id] = &entry
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return entries, order, nil
}
