// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"iter"

	"github.com/huangsam/osshealth/schema"
)

// CommitSource defines the read access needed from a hosted commit log.
// This allows the history builder to be tested without network access.
type CommitSource interface {
	// Commits streams the commit log of repo at branch, newest first.
	// Pagination is handled internally and the sequence stops early when the
	// consumer breaks. Each call starts a fresh walk from the branch tip.
	// A missing branch yields a single error wrapping schema.ErrBranchNotFound.
	Commits(ctx context.Context, repo, branch string) iter.Seq2[schema.Commit, error]
}

// RemoteReader fetches a serialized snapshot from a read-only remote location.
type RemoteReader interface {
	// Fetch returns the body for key, or an error wrapping schema.ErrCacheMiss
	// when the remote answers with anything but 200.
	Fetch(ctx context.Context, key string) ([]byte, error)
}
