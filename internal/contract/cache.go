package contract

import (
	"context"

	"github.com/huangsam/osshealth/schema"
)

// HistoryCache defines the snapshot store used as the merge base between runs.
type HistoryCache interface {
	// Load returns the cached history, or an error wrapping schema.ErrCacheMiss.
	Load(ctx context.Context, key schema.CacheKey) (schema.History, error)

	// Save replaces the cached history for key.
	Save(ctx context.Context, key schema.CacheKey, history schema.History) error

	// Close releases the underlying resources.
	Close() error
}

// CacheStore defines the interface for keyed blob storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}
