package vectorstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func indexPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "data", "nested", "index.json")
}

func TestStore_LoadMissingSnapshot(t *testing.T) {
	store := New(indexPath(t), nil)

	require.NoError(t, store.Load(context.Background()))

	assert.False(t, store.IsReady())
	assert.Equal(t, 0, store.Stats().TotalChunks)
}

func TestStore_PersistAndReload(t *testing.T) {
	path := indexPath(t)
	store := New(path, nil)
	store.ReplaceChunks([]domain.Chunk{
		{ID: "coe::bidding", Content: "COE quota", Source: "coe", Section: "Bidding", Category: "coe", Embedding: []float32{1, 0}},
		{ID: "tax::road-tax", Content: "Road tax 372", Source: "tax", Section: "Road Tax", Category: "road_tax"},
	})
	require.NoError(t, store.Persist())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	reloaded := New(path, nil)
	require.NoError(t, reloaded.Load(context.Background()))

	assert.True(t, reloaded.IsReady())
	stats := reloaded.Stats()
	assert.True(t, stats.HasEmbeddings)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, map[string]int{"coe": 1, "road_tax": 1}, stats.Categories)
	assert.Equal(t, []float32{1, 0}, reloaded.Chunks()[0].Embedding)
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	path := indexPath(t)
	store := New(path, nil)
	require.NoError(t, store.Load(context.Background()))

	writer := New(path, nil)
	writer.ReplaceChunks([]domain.Chunk{{ID: "a", Content: "late snapshot"}})
	require.NoError(t, writer.Persist())

	require.NoError(t, store.Load(context.Background()))
	assert.False(t, store.IsReady(), "second Load must not re-read the snapshot")
}

func TestStore_LoadRejectsVersionMismatch(t *testing.T) {
	path := indexPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"createdAt":"2024-01-01T00:00:00Z","chunks":[{"id":"old","content":"stale"}]}`), 0o644))

	store := New(path, nil)
	require.NoError(t, store.Load(context.Background()))

	assert.False(t, store.IsReady())
}

func TestStore_LoadIgnoresCorruptSnapshot(t *testing.T) {
	path := indexPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"version":`), 0o644))

	store := New(path, nil)
	require.NoError(t, store.Load(context.Background()))

	assert.False(t, store.IsReady())
}

func TestStore_AddChunks_EmbedsOnlyMissing(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)

	embedder.On("EmbedTexts", mock.Anything, []string{"needs vector"}).Return([][]float32{{0, 1}}, nil).Once()

	err := store.AddChunks(context.Background(), []domain.Chunk{
		{ID: "a", Content: "has vector", Embedding: []float32{1, 0}},
		{ID: "b", Content: "needs vector"},
	})
	require.NoError(t, err)

	chunks := store.Chunks()
	require.Len(t, chunks, 2)
	assert.Equal(t, []float32{1, 0}, chunks[0].Embedding)
	assert.Equal(t, []float32{0, 1}, chunks[1].Embedding)
	embedder.AssertExpectations(t)
}

func TestStore_AddChunks_ReplacesIndex(t *testing.T) {
	store := New(indexPath(t), nil)
	store.ReplaceChunks([]domain.Chunk{{ID: "old", Content: "old", Embedding: []float32{1}}})

	require.NoError(t, store.AddChunks(context.Background(), []domain.Chunk{{ID: "new", Content: "new", Embedding: []float32{1}}}))

	chunks := store.Chunks()
	require.Len(t, chunks, 1)
	assert.Equal(t, "new", chunks[0].ID)
}

func TestStore_AddChunks_EmbeddingFailure(t *testing.T) {
	embedder := new(MockEmbedder)
	store := New(indexPath(t), embedder)
	store.ReplaceChunks([]domain.Chunk{{ID: "keep", Content: "existing"}})

	apiErr := errors.New("embedding api down")
	embedder.On("EmbedTexts", mock.Anything, mock.Anything).Return(nil, apiErr)

	err := store.AddChunks(context.Background(), []domain.Chunk{{ID: "x", Content: "new"}})

	assert.ErrorIs(t, err, apiErr)
	chunks := store.Chunks()
	require.Len(t, chunks, 1)
	assert.Equal(t, "keep", chunks[0].ID)
}

func TestStore_AddChunks_NoEmbedder(t *testing.T) {
	store := New(indexPath(t), nil)

	err := store.AddChunks(context.Background(), []domain.Chunk{{ID: "x", Content: "new"}})

	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestStore_PersistCreatesDirectory(t *testing.T) {
	path := indexPath(t)
	store := New(path, nil)

	require.NoError(t, store.Persist())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
