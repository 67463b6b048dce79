package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLocalStores opens every local backend that needs no server.
func newLocalStores(t *testing.T) map[schema.DatabaseBackend]contract.CacheStore {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)
	sqliteStore, err := NewCacheStore(schema.SQLiteBackend, filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	boltStore, err := NewBoltStore(filepath.Join(dir, "cache.bolt"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = sqliteStore.Close()
		_ = boltStore.Close()
	})
	return map[schema.DatabaseBackend]contract.CacheStore{
		schema.FileBackend:   fileStore,
		schema.SQLiteBackend: sqliteStore,
		schema.BoltBackend:   boltStore,
	}
}

func TestLocalBackendOperations(t *testing.T) {
	for backend, store := range newLocalStores(t) {
		t.Run(string(backend), func(t *testing.T) {
			key := "python/psf/requests"
			ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

			// Missing key is a cache miss
			_, _, _, err := store.Get(key)
			assert.ErrorIs(t, err, schema.ErrCacheMiss)

			require.NoError(t, store.Set(key, []byte("first"), SnapshotVersion, ts))
			data, version, gotTs, err := store.Get(key)
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), data)
			assert.Equal(t, SnapshotVersion, version)
			assert.Equal(t, ts, gotTs)

			// Set replaces the previous value
			require.NoError(t, store.Set(key, []byte("second"), SnapshotVersion, ts+60))
			data, _, gotTs, err = store.Get(key)
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), data)
			assert.Equal(t, ts+60, gotTs)

			require.NoError(t, store.Set("python/pallets/flask", []byte("other"), SnapshotVersion, ts-60))
			status, err := store.GetStatus()
			require.NoError(t, err)
			assert.Equal(t, string(backend), status.Backend)
			assert.True(t, status.Connected)
			assert.Equal(t, 2, status.TotalEntries)
			assert.Equal(t, ts+60, status.LastEntryTime.Unix())
			assert.Equal(t, ts-60, status.OldestEntryTime.Unix())
			assert.Greater(t, status.TableSizeBytes, int64(0))

			require.NoError(t, store.Delete(key))
			require.NoError(t, store.Delete(key), "deleting a missing key is not an error")
			_, _, _, err = store.Get(key)
			assert.ErrorIs(t, err, schema.ErrCacheMiss)
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, store.Root())

	require.NoError(t, store.Set("python/psf/requests", []byte("x"), SnapshotVersion, time.Now().Unix()))
	_, err = os.Stat(filepath.Join(root, "python", "psf", "requests.parquet"))
	assert.NoError(t, err)

	for _, bad := range []string{"../escape", "python//x", "python/./x", ""} {
		assert.Error(t, store.Set(bad, []byte("x"), SnapshotVersion, 0), bad)
		_, _, _, err := store.Get(bad)
		assert.Error(t, err, bad)
	}
}

func TestBoltStoreCopiesValues(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "cache.bolt"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	payload := bytes.Repeat([]byte("z"), 4096)
	require.NoError(t, store.Set("k/a/b", payload, 7, 42))
	data, version, ts, err := store.Get("k/a/b")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, 7, version)
	assert.Equal(t, int64(42), ts)
}

func TestNoneBackend(t *testing.T) {
	store, err := NewCacheStore(schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set("a/b/c", []byte("x"), SnapshotVersion, 1))
	_, _, _, err = store.Get("a/b/c")
	assert.ErrorIs(t, err, schema.ErrCacheMiss)
	assert.NoError(t, store.Delete("a/b/c"))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewLocalStoreErrors(t *testing.T) {
	_, err := NewLocalStore("cassandra", "", "")
	assert.Error(t, err)

	_, err = NewCacheStore(schema.FileBackend, "")
	assert.Error(t, err, "file backend is not a SQL backend")
}

func TestPlaceholderAndUpsert(t *testing.T) {
	pg := &CacheStoreImpl{backend: schema.PostgreSQLBackend}
	my := &CacheStoreImpl{backend: schema.MySQLBackend}
	lite := &CacheStoreImpl{backend: schema.SQLiteBackend}

	assert.Equal(t, "$1", pg.placeholder(1))
	assert.Equal(t, "?", my.placeholder(1))
	assert.Equal(t, "?", lite.placeholder(1))

	assert.Contains(t, pg.upsertQuery(), "ON CONFLICT (cache_key)")
	assert.Contains(t, my.upsertQuery(), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, lite.upsertQuery(), "INSERT OR REPLACE")
	for _, q := range []string{pg.upsertQuery(), my.upsertQuery(), lite.upsertQuery()} {
		assert.True(t, strings.Contains(q, historyTable))
	}
}

func TestMigrateCacheSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, -1))
	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, -1), "second run is a no-op")
	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateCache(schema.SQLiteBackend, dbPath, 0))

	// The store migrates a rolled-back database back up on open
	store, err := NewCacheStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.NoError(t, store.Set("a/b/c", []byte("x"), SnapshotVersion, 1))

	assert.Error(t, MigrateCache(schema.FileBackend, "", -1))
	assert.Error(t, MigrateCache(schema.NoneBackend, "", -1))
}

func TestClearCache(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "snapshots")
		store, err := NewFileStore(root)
		require.NoError(t, err)
		require.NoError(t, store.Set("python/a/b", []byte("x"), SnapshotVersion, 1))

		require.NoError(t, ClearCache(schema.FileBackend, "", root))
		_, err = os.Stat(root)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Clearing again is fine
		assert.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("bolt", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "cache.bolt")
		store, err := NewBoltStore(dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.BoltBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("none and unknown", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.Error(t, ClearCache("cassandra", "", ""))
	})
}

func TestInitCaching(t *testing.T) {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager = &CacheStoreManager{}

	root := filepath.Join(t.TempDir(), "snapshots")
	opts := Options{Backend: schema.FileBackend, Root: root}

	// Multiple initializations should be safe (sync.Once)
	require.NoError(t, InitCaching(opts))
	first := Manager.GetHistoryCache()
	require.NotNil(t, first)
	require.NoError(t, InitCaching(Options{Backend: "cassandra"}))
	assert.Same(t, first, Manager.GetHistoryCache())

	// Multiple closes should be safe (sync.Once)
	CloseCaching()
	CloseCaching()
}

func TestInitCachingError(t *testing.T) {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager = &CacheStoreManager{}

	err := InitCaching(Options{Backend: "cassandra"})
	assert.Error(t, err)
	assert.Nil(t, Manager.GetHistoryCache())
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "file",
		Connected:       true,
		TotalEntries:    2,
		LastEntryTime:   now,
		OldestEntryTime: now,
		TableSizeBytes:  99,
	})
	out := buf.String()
	assert.Contains(t, out, "Total Entries: 2")
	assert.Contains(t, out, "Last Entry: 2024-01-02 03:04:05")
	assert.Contains(t, out, "Table Size: 99 bytes")
}
