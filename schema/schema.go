// Package schema has models, constants and sentinel errors for all parts of osshealth.
package schema

import (
	"strings"
	"time"
)

// Commit is a single entry of a repository's commit log.
type Commit struct {
	SHA       string    `json:"sha"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"` // login, or NoAuthor when unattributed
}

// History is the merged commit table of one repository.
// Freshly fetched rows come first (newest first), followed by cached rows.
type History []Commit

// CacheKey addresses one history snapshot in the cache.
type CacheKey struct {
	Domain string // e.g. "python"
	Name   string // e.g. "pandas-dev/pandas"
}

// String returns the slash-joined form used by every cache backend.
func (k CacheKey) String() string {
	return strings.Trim(k.Domain, "/") + "/" + strings.Trim(k.Name, "/")
}

// AuthorCount is one row of the regular committer summary.
type AuthorCount struct {
	Author  string `json:"author"`
	Commits int    `json:"commits"`
}

// IrregularStat is one row of the top irregular contributor summary.
type IrregularStat struct {
	Author  string    `json:"author"`
	Commits int       `json:"commits"`
	First   time.Time `json:"first"`
	Last    time.Time `json:"last"`
}

// Summary is the classification result of one repository over one window.
type Summary struct {
	Name              string          `json:"name"`
	Days              int             `json:"days"`
	History           History         `json:"-"`
	RegularCommitters []string        `json:"regular_committers"`
	RegularSummary    []AuthorCount   `json:"regular_summary"`
	TopIrregular      []IrregularStat `json:"top_irregular"`
}

// Project is one entry of the batch project list.
type Project struct {
	Repo            string `json:"repo" yaml:"repo"`
	DownloadsPerDay string `json:"downloads_per_day" yaml:"downloads"`
}

// SummaryRow is one line of the batch summary CSV.
type SummaryRow struct {
	Repo            string      `json:"repo"`
	Counts          map[int]int `json:"counts"` // window days -> number of regular committers
	DownloadsPerDay string      `json:"downloads_per_day"`
}
