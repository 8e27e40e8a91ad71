package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/motomarket/motorag/internal/cache"
)

// Sweeper removes expired cache entries
type Sweeper interface {
	Sweep(ctx context.Context) (cache.SweepResult, error)
}

// CacheSweeper deletes expired response cache entries on each pass
type CacheSweeper struct {
	cache Sweeper
}

// NewCacheSweeper creates a new CacheSweeper instance
func NewCacheSweeper(c Sweeper) *CacheSweeper {
	return &CacheSweeper{cache: c}
}

// ProcessJobs implements the JobProcessor interface
func (s *CacheSweeper) ProcessJobs(ctx context.Context) error {
	res, err := s.cache.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep response cache: %w", err)
	}
	if res.Memory > 0 || res.Persistent > 0 {
		log.Printf("cache: swept %d memory and %d persistent entries", res.Memory, res.Persistent)
	}
	return nil
}
