package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motomarket/motorag/internal/domain"
)

// ResponseCacheRepository is the persistent tier of the response cache.
type ResponseCacheRepository struct {
	db dbtx
}

func NewResponseCacheRepository(pool *pgxpool.Pool) *ResponseCacheRepository {
	return &ResponseCacheRepository{db: pool}
}

func (r *ResponseCacheRepository) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	err := r.db.QueryRow(ctx,
		`SELECT cache_key, endpoint, response, expires_at
		 FROM ai_response_cache WHERE cache_key = $1`,
		key,
	).Scan(&e.Key, &e.Endpoint, &e.Response, &e.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCacheEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *ResponseCacheRepository) Upsert(ctx context.Context, e *domain.CacheEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_response_cache (cache_key, endpoint, response, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cache_key) DO UPDATE
		 SET endpoint = EXCLUDED.endpoint, response = EXCLUDED.response, expires_at = EXCLUDED.expires_at`,
		e.Key, e.Endpoint, e.Response, e.ExpiresAt, time.Now().UTC(),
	)
	return err
}

func (r *ResponseCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ai_response_cache WHERE cache_key = $1`, key)
	return err
}

// DeleteExpired removes entries whose expiry is at or before now.
func (r *ResponseCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM ai_response_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
