// Package vectorstore holds retrieval chunks in memory and persists them as
// a JSON snapshot.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/motomarket/motorag/internal/domain"
)

// SchemaVersion is bumped whenever the snapshot layout changes. Snapshots
// with any other version are ignored and rebuilt.
const SchemaVersion = 2

// ErrNoEmbedder is returned when an operation needs vectors but the store
// was built without an embedding client.
var ErrNoEmbedder = errors.New("vector store has no embedding client")

// Embedder turns texts into vectors in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the in-memory chunk index. One Store is built per process and
// shared by reference.
type Store struct {
	mu       sync.RWMutex
	path     string
	embedder Embedder
	chunks   []domain.Chunk
	loaded   bool
	now      func() time.Time
}

// New creates an unloaded store backed by the snapshot at path. embedder may
// be nil, in which case only keyword search is available.
func New(path string, embedder Embedder) *Store {
	return &Store{
		path:     path,
		embedder: embedder,
		now:      time.Now,
	}
}

// Load reads the snapshot once. A missing, unreadable or outdated snapshot
// leaves the store loaded and empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("vectorstore: warning: failed to read index %s: %v", s.path, err)
		}
		return nil
	}

	var snap domain.IndexSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("vectorstore: warning: ignoring corrupt index %s: %v", s.path, err)
		return nil
	}
	if snap.Version != SchemaVersion {
		log.Printf("vectorstore: index version %d does not match %d, rebuild required", snap.Version, SchemaVersion)
		return nil
	}

	s.chunks = snap.Chunks
	log.Printf("vectorstore: loaded %d chunks from %s", len(s.chunks), s.path)
	return nil
}

// AddChunks embeds every chunk that has no vector yet and replaces the
// whole index with the result. Embedding failures are returned and the
// index is left untouched.
func (s *Store) AddChunks(ctx context.Context, chunks []domain.Chunk) error {
	next := make([]domain.Chunk, len(chunks))
	copy(next, chunks)

	var missing []int
	for i := range next {
		if !next[i].HasEmbedding() {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		if s.embedder == nil {
			return ErrNoEmbedder
		}
		texts := make([]string, len(missing))
		for i, idx := range missing {
			texts[i] = next[idx].Content
		}
		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
		}
		if len(vectors) != len(missing) {
			return fmt.Errorf("failed to embed chunks: got %d vectors for %d chunks", len(vectors), len(missing))
		}
		for i, idx := range missing {
			next[idx].Embedding = vectors[i]
		}
	}

	s.ReplaceChunks(next)
	return nil
}

// ReplaceChunks swaps in chunks as they are, with or without vectors.
func (s *Store) ReplaceChunks(chunks []domain.Chunk) {
	next := make([]domain.Chunk, len(chunks))
	copy(next, chunks)

	s.mu.Lock()
	s.chunks = next
	s.loaded = true
	s.mu.Unlock()
}

// Chunks returns a copy of the indexed chunks.
func (s *Store) Chunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// IsReady reports whether the store is loaded and holds at least one chunk.
func (s *Store) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && len(s.chunks) > 0
}

// HasEmbeddings reports whether any chunk carries a vector.
func (s *Store) HasEmbeddings() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hasEmbeddings(s.chunks)
}

func hasEmbeddings(chunks []domain.Chunk) bool {
	for i := range chunks {
		if chunks[i].HasEmbedding() {
			return true
		}
	}
	return false
}

// Stats returns the chunk count, a category histogram and whether vectors
// are present.
func (s *Store) Stats() domain.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.IndexStats{
		TotalChunks: len(s.chunks),
		Categories:  make(map[string]int),
	}
	for i := range s.chunks {
		stats.Categories[s.chunks[i].Category]++
		if s.chunks[i].HasEmbedding() {
			stats.HasEmbeddings = true
		}
	}
	return stats
}

// Persist writes the current chunks, vectors included, to the snapshot path.
// The file is replaced atomically.
func (s *Store) Persist() error {
	s.mu.RLock()
	snap := domain.IndexSnapshot{
		Version:   SchemaVersion,
		CreatedAt: s.now().UTC(),
		Chunks:    s.chunks,
	}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}

	log.Printf("vectorstore: persisted %d chunks to %s", len(snap.Chunks), s.path)
	return nil
}
