package iocache

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	bolt "go.etcd.io/bbolt"
)

// boltHeaderSize is the length of the version and timestamp prefix of each value.
const boltHeaderSize = 4 + 8

// BoltStore keeps snapshots in a single bbolt file.
type BoltStore struct {
	db   *bolt.DB
	path string
}

var _ contract.CacheStore = &BoltStore{} // Compile-time check

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		path = contract.GetCacheDBFilePath("bolt")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache at %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(historyTable))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", historyTable, err)
	}
	return &BoltStore{db: db, path: path}, nil
}

// Get retrieves a value by key from the store.
func (bs *BoltStore) Get(key string) ([]byte, int, int64, error) {
	var value []byte
	var version int
	var ts int64
	err := bs.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(historyTable)).Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%s: %w", key, schema.ErrCacheMiss)
		}
		if len(raw) < boltHeaderSize {
			return fmt.Errorf("corrupt cache entry %s", key)
		}
		version = int(binary.BigEndian.Uint32(raw[:4]))
		ts = int64(binary.BigEndian.Uint64(raw[4:boltHeaderSize]))
		// Values are only valid for the life of the transaction
		value = append([]byte(nil), raw[boltHeaderSize:]...)
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (bs *BoltStore) Set(key string, value []byte, version int, timestamp int64) error {
	raw := make([]byte, boltHeaderSize+len(value))
	binary.BigEndian.PutUint32(raw[:4], uint32(version))
	binary.BigEndian.PutUint64(raw[4:boltHeaderSize], uint64(timestamp))
	copy(raw[boltHeaderSize:], value)
	return bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(historyTable)).Put([]byte(key), raw)
	})
}

// Delete removes a key from the store. Missing keys are not an error.
func (bs *BoltStore) Delete(key string) error {
	return bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(historyTable)).Delete([]byte(key))
	})
}

// GetStatus returns status information about the bolt file.
func (bs *BoltStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.BoltBackend), Connected: true}
	err := bs.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(historyTable)).ForEach(func(_, raw []byte) error {
			if len(raw) < boltHeaderSize {
				return nil
			}
			ts := time.Unix(int64(binary.BigEndian.Uint64(raw[4:boltHeaderSize])), 0)
			if status.TotalEntries == 0 || ts.After(status.LastEntryTime) {
				status.LastEntryTime = ts
			}
			if status.TotalEntries == 0 || ts.Before(status.OldestEntryTime) {
				status.OldestEntryTime = ts
			}
			status.TotalEntries++
			return nil
		})
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan bolt cache: %w", err)
	}
	if info, err := os.Stat(bs.path); err == nil {
		status.TableSizeBytes = info.Size()
	}
	return status, nil
}

// Close closes the bolt file.
func (bs *BoltStore) Close() error {
	return bs.db.Close()
}
