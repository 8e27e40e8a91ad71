package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5}

	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0, 0}, v))
	assert.Equal(t, 0.0, CosineSimilarity(v, []float32{0, 0, 0}))
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
}

func scenarioChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			ID:       "coe::coe-bidding",
			Content:  "## COE Bidding\n\nThe COE quota is set for each bidding exercise.",
			Source:   "coe",
			Section:  "COE Bidding",
			Category: "coe",
			Tags:     []string{"bidding"},
		},
		{
			ID:       "tax::road-tax",
			Content:  "## Road Tax\n\nRoad tax for bikes up to 200cc is 372 a year.",
			Source:   "tax",
			Section:  "Road Tax",
			Category: "road_tax",
			Tags:     []string{"tax"},
		},
	}
}

func TestKeywordSearch_RanksMatchingSectionFirst(t *testing.T) {
	store := New(indexPath(t), nil)
	store.ReplaceChunks(scenarioChunks())

	results := store.KeywordSearch("what is the quota for COE", SearchOptions{TopK: 5})

	require.Len(t, results, 2)
	assert.Equal(t, "coe::coe-bidding", results[0].Chunk.ID)
	assert.Equal(t, "tax::road-tax", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestKeywordSearch_Scoring(t *testing.T) {
	store := New(indexPath(t), nil)
	store.ReplaceChunks([]domain.Chunk{
		{ID: "a", Content: "quota quota", Section: "Quota rules", Tags: []string{"quota-info"}},
		{ID: "b", Content: "nothing relevant"},
	})

	results := store.KeywordSearch("Quota?", SearchOptions{})

	require.Len(t, results, 1)
	// two occurrences, a tag hit and a section hit
	assert.Equal(t, float64(2*2+5+3), results[0].Score)
}

func TestKeywordSearch_FiltersAndShortTokens(t *testing.T) {
	store := New(indexPath(t), nil)
	store.ReplaceChunks(scenarioChunks())

	assert.Empty(t, store.KeywordSearch("a ? !", SearchOptions{}))

	results := store.KeywordSearch("road tax quota", SearchOptions{Category: "coe"})
	require.Len(t, results, 1)
	assert.Equal(t, "coe::coe-bidding", results[0].Chunk.ID)

	results = store.KeywordSearch("road tax quota", SearchOptions{TopK: 1})
	require.Len(t, results, 1)
}

func TestHybridSearch_NoEmbeddingsMatchesKeyword(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)
	store.ReplaceChunks(scenarioChunks())

	opts := SearchOptions{TopK: 3}
	hybrid, err := store.HybridSearch(context.Background(), "what is the quota for COE", opts)
	require.NoError(t, err)

	assert.Equal(t, store.KeywordSearch("what is the quota for COE", opts), hybrid)
	embedder.AssertNotCalled(t, "EmbedTexts", mock.Anything, mock.Anything)
}

func TestSearch_FiltersAndSkipsMissingVectors(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)
	store.ReplaceChunks([]domain.Chunk{
		{ID: "close", Category: "coe", Tags: []string{"quota"}, Embedding: []float32{1, 0.1}},
		{ID: "far", Category: "coe", Tags: []string{"bidding"}, Embedding: []float32{0, 1}},
		{ID: "other-cat", Category: "insurance", Embedding: []float32{1, 0}},
		{ID: "no-vector", Category: "coe"},
	})
	embedder.On("EmbedTexts", mock.Anything, []string{"quota"}).Return([][]float32{{1, 0}}, nil)

	results, err := store.Search(context.Background(), "quota", SearchOptions{Category: "coe"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].Chunk.ID)
	assert.Equal(t, "far", results[1].Chunk.ID)

	results, err = store.Search(context.Background(), "quota", SearchOptions{Tags: []string{"BIDDING"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "far", results[0].Chunk.ID)
}

func TestSearch_NoEmbedder(t *testing.T) {
	store := New(indexPath(t), nil)
	_, err := store.Search(context.Background(), "quota", SearchOptions{})
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestHybridSearch_MergesScores(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)
	store.ReplaceChunks([]domain.Chunk{
		{ID: "both", Content: "quota quota", Embedding: []float32{1, 0}},
		{ID: "vector-only", Content: "unrelated", Embedding: []float32{0, 1}},
		{ID: "keyword-only", Content: "quota"},
	})
	embedder.On("EmbedTexts", mock.Anything, []string{"quota"}).Return([][]float32{{1, 0}}, nil)

	results, err := store.HybridSearch(context.Background(), "quota", SearchOptions{TopK: 3})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "both", results[0].Chunk.ID)
	assert.InDelta(t, 0.7+0.3, results[0].Score, 1e-9)
	assert.Equal(t, "keyword-only", results[1].Chunk.ID)
	assert.InDelta(t, 0.15, results[1].Score, 1e-9)
	assert.Equal(t, "vector-only", results[2].Chunk.ID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestHybridSearch_VectorFailure(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)
	store.ReplaceChunks([]domain.Chunk{{ID: "a", Content: "quota", Embedding: []float32{1}}})
	embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := store.HybridSearch(context.Background(), "quota", SearchOptions{})
	assert.Error(t, err)
}

func TestMergeResults_KeywordFloor(t *testing.T) {
	vec := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "a"}, Score: 0.5}}
	kw := []domain.ScoredChunk{{Chunk: domain.Chunk{ID: "b"}, Score: 0.5}}

	merged := mergeResults(vec, kw)

	require.Len(t, merged, 2)
	assert.InDelta(t, 0.35, merged[0].Score, 1e-9)
	// batch max below 1 is floored, so the keyword score is not inflated
	assert.InDelta(t, 0.15, merged[1].Score, 1e-9)
}
