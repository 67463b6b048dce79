package iocache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
)

// HTTPRemote reads published snapshots from <base>/<key>.parquet.
type HTTPRemote struct {
	base   string
	client *http.Client
}

var _ contract.RemoteReader = &HTTPRemote{} // Compile-time check

// NewHTTPRemote returns a reader for the remote cache at base.
// A nil client uses a client with a 30 second timeout.
func NewHTTPRemote(base string, client *http.Client) *HTTPRemote {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRemote{base: strings.TrimRight(base, "/"), client: client}
}

// URL returns the location of the snapshot for key.
func (r *HTTPRemote) URL(key string) string {
	return r.base + "/" + strings.Trim(key, "/") + SnapshotExt
}

// Fetch downloads the snapshot for key. Any status other than 200 is a miss.
func (r *HTTPRemote) Fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s returned %d: %w", r.URL(key), resp.StatusCode, schema.ErrCacheMiss)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote snapshot: %w", err)
	}
	return data, nil
}
