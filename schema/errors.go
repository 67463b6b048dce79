package schema

import "errors"

// Sentinel errors shared across packages. Callers wrap them with %w and
// match them with errors.Is.
var (
	// ErrBranchResolution means no default branch candidate has any commits.
	ErrBranchResolution = errors.New("unable to determine default branch")

	// ErrBranchNotFound means the requested branch does not exist upstream.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrFetchTimeout marks a transient read timeout from the commit source.
	ErrFetchTimeout = errors.New("commit fetch timed out")

	// ErrCacheMiss means no snapshot exists for the key (remote non-200 included).
	ErrCacheMiss = errors.New("history not cached")

	// ErrReadOnlyCache is returned when saving to a cache that only supports reads.
	ErrReadOnlyCache = errors.New("cache is read-only")
)
