package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/motomarket/motorag/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTopK = 5

	vectorWeight  = 0.7
	keywordWeight = 0.3

	occurrenceScore = 2
	tagMatchScore   = 5
	sectionScore    = 3
)

// SearchOptions narrows a search. Category and Tags filter candidates
// before scoring; a chunk passes Tags when it carries any of them.
type SearchOptions struct {
	TopK     int
	Category string
	Tags     []string
}

func (o SearchOptions) topK() int {
	if o.TopK <= 0 {
		return defaultTopK
	}
	return o.TopK
}

func (o SearchOptions) matches(c *domain.Chunk) bool {
	if o.Category != "" && c.Category != o.Category {
		return false
	}
	if len(o.Tags) == 0 {
		return true
	}
	for _, want := range o.Tags {
		for _, tag := range c.Tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}

// Search ranks chunks by cosine similarity to the embedded query. Chunks
// without a vector are never returned.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredChunk, error) {
	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}
	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("failed to embed query: no vector returned")
	}
	queryVec := vectors[0]

	s.mu.RLock()
	results := make([]domain.ScoredChunk, 0, len(s.chunks))
	for i := range s.chunks {
		c := &s.chunks[i]
		if !c.HasEmbedding() || !opts.matches(c) {
			continue
		}
		results = append(results, domain.ScoredChunk{Chunk: *c, Score: CosineSimilarity(queryVec, c.Embedding)})
	}
	s.mu.RUnlock()

	return topResults(results, opts.topK()), nil
}

// KeywordSearch scores chunks by literal token matches: two points per
// occurrence in the content, a bonus when a token appears in a tag and a
// smaller one when it appears in the section title. Zero scores are dropped.
func (s *Store) KeywordSearch(query string, opts SearchOptions) []domain.ScoredChunk {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []domain.ScoredChunk{}
	}

	s.mu.RLock()
	results := make([]domain.ScoredChunk, 0)
	for i := range s.chunks {
		c := &s.chunks[i]
		if !opts.matches(c) {
			continue
		}
		if score := keywordScore(c, tokens); score > 0 {
			results = append(results, domain.ScoredChunk{Chunk: *c, Score: score})
		}
	}
	s.mu.RUnlock()

	return topResults(results, opts.topK())
}

// HybridSearch merges vector and keyword rankings with fixed 0.7/0.3
// weights. Keyword scores are normalised by the batch maximum, floored at 1.
// With no vectors in the store it is exactly KeywordSearch.
func (s *Store) HybridSearch(ctx context.Context, query string, opts SearchOptions) ([]domain.ScoredChunk, error) {
	if !s.HasEmbeddings() || s.embedder == nil {
		return s.KeywordSearch(query, opts), nil
	}

	topK := opts.topK()
	legOpts := opts
	legOpts.TopK = topK * 2

	var vecResults, kwResults []domain.ScoredChunk
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecResults, err = s.Search(gctx, query, legOpts)
		return err
	})
	g.Go(func() error {
		kwResults = s.KeywordSearch(query, legOpts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return topResults(mergeResults(vecResults, kwResults), topK), nil
}

func mergeResults(vec, kw []domain.ScoredChunk) []domain.ScoredChunk {
	merged := make(map[string]*domain.ScoredChunk, len(vec)+len(kw))
	order := make([]string, 0, len(vec)+len(kw))

	for _, r := range vec {
		score := r.Score * vectorWeight
		if existing, ok := merged[r.Chunk.ID]; ok {
			existing.Score = math.Max(existing.Score, score)
			continue
		}
		merged[r.Chunk.ID] = &domain.ScoredChunk{Chunk: r.Chunk, Score: score}
		order = append(order, r.Chunk.ID)
	}

	maxKw := 1.0
	for _, r := range kw {
		maxKw = math.Max(maxKw, r.Score)
	}
	for _, r := range kw {
		score := r.Score / maxKw * keywordWeight
		if existing, ok := merged[r.Chunk.ID]; ok {
			existing.Score += score
			continue
		}
		merged[r.Chunk.ID] = &domain.ScoredChunk{Chunk: r.Chunk, Score: score}
		order = append(order, r.Chunk.ID)
	}

	out := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out
}

func topResults(results []domain.ScoredChunk, topK int) []domain.ScoredChunk {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func keywordScore(c *domain.Chunk, tokens []string) float64 {
	content := strings.ToLower(c.Content)
	section := strings.ToLower(c.Section)

	score := 0
	for _, tok := range tokens {
		score += strings.Count(content, tok) * occurrenceScore
		for _, tag := range c.Tags {
			if strings.Contains(strings.ToLower(tag), tok) {
				score += tagMatchScore
				break
			}
		}
		if strings.Contains(section, tok) {
			score += sectionScore
		}
	}
	return float64(score)
}

// CosineSimilarity returns the cosine of the angle between a and b. It is 0
// when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
