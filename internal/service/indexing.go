package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/motomarket/motorag/internal/telemetry"
	"github.com/motomarket/motorag/internal/vectorstore"
)

// DocumentLoader reads the knowledge base from its content store.
type DocumentLoader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// KnowledgeIndex is the vector store as seen by indexing and retrieval.
type KnowledgeIndex interface {
	Load(ctx context.Context) error
	IsReady() bool
	AddChunks(ctx context.Context, chunks []domain.Chunk) error
	ReplaceChunks(chunks []domain.Chunk)
	Persist() error
	HybridSearch(ctx context.Context, query string, opts vectorstore.SearchOptions) ([]domain.ScoredChunk, error)
	Stats() domain.IndexStats
}

// IndexResult summarises a rebuild.
type IndexResult struct {
	Documents  int           `json:"documents"`
	Chunks     int           `json:"chunks"`
	Embedded   bool          `json:"embedded"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"durationMs"`
	EmbedError string        `json:"embedError,omitempty"`
}

// Indexer rebuilds the knowledge index from source documents.
type Indexer struct {
	loader  DocumentLoader
	chunker *Chunker
	index   KnowledgeIndex
}

func NewIndexer(loader DocumentLoader, chunker *Chunker, index KnowledgeIndex) *Indexer {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkConfig())
	}
	return &Indexer{loader: loader, chunker: chunker, index: index}
}

// Rebuild loads, chunks and embeds every document, replaces the index and
// persists it. When embedding fails the chunks are stored without vectors
// and search falls back to keywords.
func (i *Indexer) Rebuild(ctx context.Context) (*IndexResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Indexer.Rebuild", telemetry.SpanAttributes{
		Operation: "index",
	})
	defer span.End()

	start := time.Now()
	docs, err := i.loader.Load(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	chunks := i.chunker.ChunkDocuments(docs)
	result := &IndexResult{Documents: len(docs), Chunks: len(chunks), Embedded: true}

	if err := i.index.AddChunks(ctx, chunks); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("indexer: warning: embedding failed, storing %d chunks without vectors: %v", len(chunks), err)
		telemetry.CaptureError(ctx, err)
		i.index.ReplaceChunks(chunks)
		result.Embedded = false
		result.EmbedError = err.Error()
	}

	if err := i.index.Persist(); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	result.Duration = time.Since(start)
	result.DurationMS = result.Duration.Milliseconds()
	log.Printf("indexer: indexed %d documents into %d chunks (embedded=%t) in %s",
		result.Documents, result.Chunks, result.Embedded, result.Duration)
	return result, nil
}
