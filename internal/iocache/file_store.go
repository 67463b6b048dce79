package iocache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
)

// SnapshotExt is the file extension of history snapshots, locally and remotely.
const SnapshotExt = ".parquet"

// FileStore keeps one snapshot file per key under a root directory, using the
// same <domain>/<owner>/<name>.parquet layout as the remote cache so that a
// cache root can be published as-is.
type FileStore struct {
	root string
}

var _ contract.CacheStore = &FileStore{} // Compile-time check

// NewFileStore returns a FileStore rooted at root, creating the directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = contract.GetCacheRoot()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache root %q: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the directory holding the snapshots.
func (s *FileStore) Root() string {
	return s.root
}

// path maps a cache key to its snapshot file, rejecting keys that escape the root.
func (s *FileStore) path(key string) (string, error) {
	for part := range strings.SplitSeq(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid cache key %q", key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+SnapshotExt), nil
}

// Get reads the snapshot for key. The version is always the current snapshot
// version and the timestamp is the file modification time.
func (s *FileStore) Get(key string) ([]byte, int, int64, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, 0, 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, 0, fmt.Errorf("%s: %w", key, schema.ErrCacheMiss)
		}
		return nil, 0, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	return data, SnapshotVersion, info.ModTime().Unix(), nil
}

// Set writes the snapshot for key through a temporary sibling file.
func (s *FileStore) Set(key string, value []byte, _ int, timestamp int64) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	ts := time.Unix(timestamp, 0)
	return os.Chtimes(path, ts, ts)
}

// Delete removes the snapshot for key. Missing keys are not an error.
func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GetStatus walks the root and summarizes the snapshots found.
func (s *FileStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.FileBackend), Connected: true}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != SnapshotExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mod := info.ModTime()
		if status.TotalEntries == 0 || mod.After(status.LastEntryTime) {
			status.LastEntryTime = mod
		}
		if status.TotalEntries == 0 || mod.Before(status.OldestEntryTime) {
			status.OldestEntryTime = mod
		}
		status.TotalEntries++
		status.TableSizeBytes += info.Size()
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan cache root: %w", err)
	}
	return status, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
