package iocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/internal/parquet"
	"github.com/huangsam/osshealth/schema"
	"github.com/sirupsen/logrus"
)

// SnapshotVersion is bumped whenever the snapshot encoding changes.
// Entries written with another version are treated as misses.
const SnapshotVersion = 1

// HistoryStore is the HistoryCache used by the history builder. It reads the
// remote cache first when one is configured, falls back to the local store,
// and always writes to the local store.
type HistoryStore struct {
	local   contract.CacheStore
	remote  contract.RemoteReader
	logger  *logrus.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

var _ contract.HistoryCache = &HistoryStore{} // Compile-time check

// HistoryStoreOption customizes a HistoryStore.
type HistoryStoreOption func(*HistoryStore)

// WithRemote enables read-through from a remote cache.
func WithRemote(remote contract.RemoteReader) HistoryStoreOption {
	return func(s *HistoryStore) { s.remote = remote }
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *logrus.Logger) HistoryStoreOption {
	return func(s *HistoryStore) { s.logger = logger }
}

// WithMetrics records cache lookups on the collector.
func WithMetrics(c *metrics.Collector) HistoryStoreOption {
	return func(s *HistoryStore) { s.metrics = c }
}

// WithClock overrides the clock used to timestamp saved snapshots.
func WithClock(now func() time.Time) HistoryStoreOption {
	return func(s *HistoryStore) { s.now = now }
}

// NewHistoryStore wraps a local blob store.
func NewHistoryStore(local contract.CacheStore, opts ...HistoryStoreOption) *HistoryStore {
	s := &HistoryStore{local: local, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = contract.LoggerOrDefault(s.logger)
	return s
}

// Local returns the underlying local store.
func (s *HistoryStore) Local() contract.CacheStore {
	return s.local
}

// Load returns the cached history for key, or an error wrapping schema.ErrCacheMiss.
func (s *HistoryStore) Load(ctx context.Context, key schema.CacheKey) (schema.History, error) {
	k := key.String()
	log := s.logger.WithField("key", k)

	if s.remote != nil {
		data, err := s.remote.Fetch(ctx, k)
		switch {
		case err == nil:
			h, decodeErr := parquet.DecodeHistory(data)
			if decodeErr == nil {
				s.metrics.RecordCacheLookup(metrics.LookupRemoteHit)
				log.WithField("rows", len(h)).Debug("Loaded history from remote cache")
				return h, nil
			}
			log.WithError(decodeErr).Warn("Ignoring unreadable remote snapshot")
		case errors.Is(err, schema.ErrCacheMiss):
			log.Debug("Remote cache miss")
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("Remote cache unavailable, using local cache")
		}
	}

	data, version, _, err := s.local.Get(k)
	if err != nil {
		if errors.Is(err, schema.ErrCacheMiss) {
			s.metrics.RecordCacheLookup(metrics.LookupMiss)
			return nil, err
		}
		s.metrics.RecordCacheLookup(metrics.LookupError)
		return nil, fmt.Errorf("failed to read cached history for %s: %w", k, err)
	}
	if version != SnapshotVersion {
		s.metrics.RecordCacheLookup(metrics.LookupMiss)
		log.WithField("version", version).Warn("Ignoring snapshot with stale version")
		return nil, fmt.Errorf("%s has snapshot version %d: %w", k, version, schema.ErrCacheMiss)
	}

	h, err := parquet.DecodeHistory(data)
	if err != nil {
		// The next save overwrites the unreadable snapshot
		s.metrics.RecordCacheLookup(metrics.LookupMiss)
		log.WithError(err).Warn("Ignoring unreadable snapshot")
		return nil, fmt.Errorf("%s is unreadable: %w", k, schema.ErrCacheMiss)
	}
	s.metrics.RecordCacheLookup(metrics.LookupLocalHit)
	return h, nil
}

// Save replaces the cached history for key in the local store.
func (s *HistoryStore) Save(_ context.Context, key schema.CacheKey, history schema.History) error {
	data, err := parquet.EncodeHistory(history)
	if err != nil {
		return fmt.Errorf("failed to encode history for %s: %w", key, err)
	}
	if err := s.local.Set(key.String(), data, SnapshotVersion, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to save history for %s: %w", key, err)
	}
	return nil
}

// Close closes the local store.
func (s *HistoryStore) Close() error {
	return s.local.Close()
}
