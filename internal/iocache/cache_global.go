package iocache

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitCaching initializes the global cache manager.
func InitCaching(opts Options) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		store, err := NewHistoryCache(opts)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize history caching: %w", err)
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.history = store
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache clears the cache for the specified backend.
// For file, it removes the snapshot directory.
// For SQLite and bolt, it deletes the database file.
// For SQL servers (MySQL/PostgreSQL), it drops the history and migration tables.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, connStr, root string) error {
	switch backend {
	case schema.FileBackend:
		if root == "" {
			root = contract.GetCacheRoot()
		}
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("failed to remove cache root %s: %w", root, err)
		}
		return nil

	case schema.SQLiteBackend, schema.BoltBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			ext := "db"
			if backend == schema.BoltBackend {
				ext = "bolt"
			}
			dbFilePath = contract.GetCacheDBFilePath(ext)
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTables(backend, connStr, historyTable, migrationsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops the tables if they exist.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
