package domain

import "time"

// Document is a knowledge-base article loaded from the content store.
// Documents are read fresh on every indexing run and never mutated.
type Document struct {
	ID          string   `json:"id"`
	Filename    string   `json:"filename"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	LastUpdated string   `json:"lastUpdated"`
	Content     string   `json:"content"`
}

// Chunk is the unit of retrieval. Chunks are immutable once created and are
// replaced wholesale on reindex.
type Chunk struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Section   string    `json:"section"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the chunk carries a vector.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ScoredChunk is a chunk paired with a retrieval score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// IndexSnapshot is the persisted form of the vector store.
type IndexSnapshot struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Chunks    []Chunk   `json:"chunks"`
}

// IndexStats summarises the vector store contents.
type IndexStats struct {
	TotalChunks   int            `json:"totalChunks"`
	Categories    map[string]int `json:"categories"`
	HasEmbeddings bool           `json:"hasEmbeddings"`
}
