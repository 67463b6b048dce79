// Package iocache stores commit history snapshots between runs.
package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/internal/metrics"
	"github.com/huangsam/osshealth/schema"
	"github.com/sirupsen/logrus"
)

// CacheStoreManager holds the process-wide history cache.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	history      *HistoryStore
}

// GetHistoryCache returns the history cache, or nil before InitCaching.
func (mgr *CacheStoreManager) GetHistoryCache() *HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// Options describes how to build the history cache.
type Options struct {
	Backend   schema.DatabaseBackend
	ConnStr   string
	Root      string // snapshot directory for the file backend
	RemoteURL string // optional read-through base URL
	Logger    *logrus.Logger
	Metrics   *metrics.Collector
}

// NewLocalStore opens the blob store selected by backend.
func NewLocalStore(backend schema.DatabaseBackend, connStr, root string) (contract.CacheStore, error) {
	switch backend {
	case schema.FileBackend, "":
		return NewFileStore(root)
	case schema.BoltBackend:
		return NewBoltStore(connStr)
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend, schema.NoneBackend:
		return NewCacheStore(backend, connStr)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be file, sqlite, mysql, postgresql, bolt, or none", backend)
	}
}

// NewHistoryCache builds the layered history cache described by opts.
func NewHistoryCache(opts Options) (*HistoryStore, error) {
	local, err := NewLocalStore(opts.Backend, opts.ConnStr, opts.Root)
	if err != nil {
		return nil, err
	}
	storeOpts := []HistoryStoreOption{WithLogger(opts.Logger), WithMetrics(opts.Metrics)}
	if opts.RemoteURL != "" {
		storeOpts = append(storeOpts, WithRemote(NewHTTPRemote(opts.RemoteURL, nil)))
	}
	return NewHistoryStore(local, storeOpts...), nil
}
