package domain

import "time"

// CacheEntry is a complete cached response. It is valid iff now < ExpiresAt.
type CacheEntry struct {
	Key       string    `json:"key"`
	Endpoint  string    `json:"endpoint"`
	Response  string    `json:"response"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is no longer valid at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
