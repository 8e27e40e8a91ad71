// Package cache is a two-tier response cache: a bounded in-memory tier in
// front of a persistent store. Cache failures never fail a request.
package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/motomarket/motorag/internal/domain"
	"github.com/motomarket/motorag/internal/telemetry"
)

const (
	DefaultMaxEntries = 500
	DefaultTTL        = time.Hour

	backgroundTimeout = 5 * time.Second
)

// Store is the persistent tier. Get returns domain.ErrCacheEntryNotFound
// for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)
	Upsert(ctx context.Context, entry *domain.CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	MaxEntries int
}

// ResponseCache holds complete responses keyed by GenerateKey. The memory
// tier is bounded; the persistent tier is optional and authoritative.
type ResponseCache struct {
	mem        *lru.Cache[string, domain.CacheEntry]
	maxEntries int
	store      Store
	now        func() time.Time

	// serialises the capacity check and insert on the memory tier
	mu sync.Mutex
	bg sync.WaitGroup
}

// New creates a cache. store may be nil for a memory-only cache.
func New(cfg Config, store Store) (*ResponseCache, error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	mem, err := lru.New[string, domain.CacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{
		mem:        mem,
		maxEntries: maxEntries,
		store:      store,
		now:        time.Now,
	}, nil
}

// Get returns the cached response for key. Expired entries are removed and
// reported as a miss; persistent-tier errors are logged and reported as a
// miss.
func (c *ResponseCache) Get(ctx context.Context, key string) (string, bool) {
	now := c.now()

	if entry, ok := c.mem.Get(key); ok {
		if !entry.Expired(now) {
			return entry.Response, true
		}
		c.mem.Remove(key)
	}

	if c.store == nil {
		return "", false
	}

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheEntryNotFound) {
			log.Printf("cache: persistent read failed for %s: %v", shortKey(key), err)
			telemetry.CaptureError(ctx, err)
		}
		return "", false
	}

	if entry.Expired(now) {
		c.detach("delete expired "+shortKey(key), func(ctx context.Context) error {
			return c.store.Delete(ctx, key)
		})
		return "", false
	}

	c.setMemory(*entry)
	return entry.Response, true
}

// Set stores a response for ttl. The memory tier is written immediately and
// the persistent write runs in the background.
func (c *ResponseCache) Set(ctx context.Context, key, endpoint, response string, ttl time.Duration) {
	entry := domain.CacheEntry{
		Key:       key,
		Endpoint:  endpoint,
		Response:  response,
		ExpiresAt: c.now().Add(ttl),
	}
	c.setMemory(entry)

	if c.store == nil {
		return
	}
	c.detach("upsert "+shortKey(key), func(ctx context.Context) error {
		return c.store.Upsert(ctx, &entry)
	})
}

func (c *ResponseCache) setMemory(entry domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mem.Contains(entry.Key) && c.mem.Len() >= c.maxEntries {
		c.sweepMemory(c.now())
		if c.mem.Len() >= c.maxEntries {
			c.mem.RemoveOldest()
		}
	}
	c.mem.Add(entry.Key, entry)
}

func (c *ResponseCache) sweepMemory(now time.Time) int {
	removed := 0
	for _, k := range c.mem.Keys() {
		if entry, ok := c.mem.Peek(k); ok && entry.Expired(now) {
			c.mem.Remove(k)
			removed++
		}
	}
	return removed
}

// SweepResult counts entries removed by Sweep.
type SweepResult struct {
	Memory     int
	Persistent int64
}

// Sweep deletes expired entries from both tiers.
func (c *ResponseCache) Sweep(ctx context.Context) (SweepResult, error) {
	now := c.now()

	c.mu.Lock()
	res := SweepResult{Memory: c.sweepMemory(now)}
	c.mu.Unlock()

	if c.store == nil {
		return res, nil
	}
	n, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		return res, err
	}
	res.Persistent = n
	return res, nil
}

// Len returns the number of entries in the memory tier.
func (c *ResponseCache) Len() int {
	return c.mem.Len()
}

// Wait blocks until background persistent-tier writes have finished.
func (c *ResponseCache) Wait() {
	c.bg.Wait()
}

// detach runs fn off the request path with its own timeout. Failures are
// logged and dropped.
func (c *ResponseCache) detach(what string, fn func(ctx context.Context) error) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("cache: background %s failed: %v", what, err)
		}
	}()
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
