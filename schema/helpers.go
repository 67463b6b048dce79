package schema

import (
	"sort"
	"time"
)

// SHAs returns the set of commit identifiers present in the history.
func (h History) SHAs() map[string]struct{} {
	seen := make(map[string]struct{}, len(h))
	for _, c := range h {
		seen[c.SHA] = struct{}{}
	}
	return seen
}

// Earliest returns the oldest timestamp in the history, or the zero time when empty.
func (h History) Earliest() time.Time {
	var earliest time.Time
	for i, c := range h {
		if i == 0 || c.Timestamp.Before(earliest) {
			earliest = c.Timestamp
		}
	}
	return earliest
}

// Restrict returns the rows younger than window relative to now.
// The comparison is strict: a commit exactly window old is excluded.
func (h History) Restrict(now time.Time, window time.Duration) History {
	out := make(History, 0, len(h))
	for _, c := range h {
		if now.Sub(c.Timestamp) < window {
			out = append(out, c)
		}
	}
	return out
}

// Authors returns the distinct authors of the history in ascending order.
func (h History) Authors() []string {
	set := make(map[string]struct{})
	for _, c := range h {
		set[c.Author] = struct{}{}
	}
	authors := make([]string, 0, len(set))
	for a := range set {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors
}

// CountSHA returns how many rows carry the given identifier.
func (h History) CountSHA(sha string) int {
	n := 0
	for _, c := range h {
		if c.SHA == sha {
			n++
		}
	}
	return n
}

// RegularCount returns the number of regular committers of the summary.
func (s Summary) RegularCount() int {
	return len(s.RegularCommitters)
}
