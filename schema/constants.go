package schema

import "time"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the storage backend for the history cache.
	DatabaseBackend string

	// SourceKind represents where commit history is read from.
	SourceKind string
)

// NoAuthor is recorded when a commit has no attributable author.
const NoAuthor = "None"

// BucketSize is the width of one bucket in the monthly commit series.
const BucketSize = 30 * 24 * time.Hour

// Day is the unit used to express windows and the retention horizon.
const Day = 24 * time.Hour

// Classification and retention defaults.
const (
	DefaultRetentionDays = 360
	TopIrregularLimit    = 5
	DefaultDomain        = "python"
)

// DefaultWindows are the trailing day-windows reported for every repository.
var DefaultWindows = []int{360, 180, 90, 60}

// DefaultBranchCandidates is the preference order used to guess a default branch.
var DefaultBranchCandidates = []string{"main", "master"}

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All cache backends supported.
const (
	FileBackend       DatabaseBackend = "file" // default
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	BoltBackend       DatabaseBackend = "bolt"
	NoneBackend       DatabaseBackend = "none"
)

// All commit sources supported.
const (
	GitHubSource SourceKind = "github" // default
	GitSource    SourceKind = "git"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	FileBackend:       {},
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	BoltBackend:       {},
	NoneBackend:       {},
}

// ValidSources lists all valid commit sources.
var ValidSources = map[SourceKind]struct{}{
	GitHubSource: {},
	GitSource:    {},
}
