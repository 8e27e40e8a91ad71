package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheEntry), args.Error(1)
}

func (m *MockStore) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func newTestCache(t *testing.T, max int, store Store, now *time.Time) *ResponseCache {
	t.Helper()
	c, err := New(Config{MaxEntries: max}, store)
	require.NoError(t, err)
	c.now = func() time.Time { return *now }
	return c
}

func TestResponseCache_MemoryHit(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, 10, nil, &now)

	c.Set(context.Background(), "k", "chat", "hello", time.Hour)

	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestResponseCache_ZeroTTLIsMiss(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, 10, nil, &now)

	c.Set(context.Background(), "k", "chat", "hello", 0)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, 10, nil, &now)

	c.Set(context.Background(), "k", "chat", "hello", time.Minute)
	now = now.Add(time.Minute)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestResponseCache_WritesThroughToStore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(e *domain.CacheEntry) bool {
		return e.Key == "k" && e.Endpoint == "chat" && e.Response == "hello" && e.ExpiresAt.Equal(now.Add(time.Hour))
	})).Return(nil)
	c := newTestCache(t, 10, store, &now)

	c.Set(context.Background(), "k", "chat", "hello", time.Hour)
	c.Wait()

	store.AssertExpectations(t)
}

func TestResponseCache_BackfillsFromStore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("Get", mock.Anything, "k").Return(&domain.CacheEntry{
		Key: "k", Endpoint: "chat", Response: "from db", ExpiresAt: now.Add(time.Hour),
	}, nil).Once()
	c := newTestCache(t, 10, store, &now)

	got, ok := c.Get(context.Background(), "k")
	require.True(t, ok)
	assert.Equal(t, "from db", got)
	assert.Equal(t, 1, c.Len())

	// second read is served from memory
	got, ok = c.Get(context.Background(), "k")
	require.True(t, ok)
	assert.Equal(t, "from db", got)
	store.AssertNumberOfCalls(t, "Get", 1)
}

func TestResponseCache_ExpiredStoreEntryIsDeleted(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("Get", mock.Anything, "k").Return(&domain.CacheEntry{
		Key: "k", Response: "stale", ExpiresAt: now.Add(-time.Second),
	}, nil)
	store.On("Delete", mock.Anything, "k").Return(nil)
	c := newTestCache(t, 10, store, &now)

	_, ok := c.Get(context.Background(), "k")
	c.Wait()

	assert.False(t, ok)
	store.AssertExpectations(t)
}

func TestResponseCache_StoreErrorsAreMisses(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("Get", mock.Anything, "missing").Return(nil, domain.ErrCacheEntryNotFound)
	store.On("Get", mock.Anything, "broken").Return(nil, errors.New("connection refused"))
	store.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	c := newTestCache(t, 10, store, &now)

	_, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)
	_, ok = c.Get(context.Background(), "broken")
	assert.False(t, ok)

	// a failed background write still leaves the memory tier populated
	c.Set(context.Background(), "k", "chat", "hello", time.Hour)
	c.Wait()
	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestResponseCache_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, 2, nil, &now)
	ctx := context.Background()

	c.Set(ctx, "a", "chat", "A", time.Hour)
	c.Set(ctx, "b", "chat", "B", time.Hour)
	c.Set(ctx, "c", "chat", "C", time.Hour)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestResponseCache_EvictsExpiredBeforeOldest(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, 2, nil, &now)
	ctx := context.Background()

	c.Set(ctx, "old", "chat", "A", 2*time.Hour)
	c.Set(ctx, "short", "chat", "B", time.Minute)
	now = now.Add(10 * time.Minute)
	c.Set(ctx, "new", "chat", "C", time.Hour)

	_, ok := c.Get(ctx, "old")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "new")
	assert.True(t, ok)
}

func TestResponseCache_Sweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	c := newTestCache(t, 10, store, &now)
	ctx := context.Background()

	c.Set(ctx, "a", "chat", "A", time.Minute)
	c.Set(ctx, "b", "chat", "B", time.Hour)
	c.Wait()
	now = now.Add(5 * time.Minute)
	store.On("DeleteExpired", mock.Anything, now).Return(int64(3), nil)

	res, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Memory)
	assert.Equal(t, int64(3), res.Persistent)
	assert.Equal(t, 1, c.Len())
}

func TestResponseCache_SweepStoreError(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockStore)
	store.On("DeleteExpired", mock.Anything, now).Return(int64(0), errors.New("timeout"))
	c := newTestCache(t, 10, store, &now)

	_, err := c.Sweep(context.Background())
	assert.Error(t, err)
}
