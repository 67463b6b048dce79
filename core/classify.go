package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/huangsam/osshealth/schema"
)

// Summarize classifies the contributors of full over the trailing window of
// days ending at now. Each author's regularity is judged on the monthly
// series of their whole history, not only the window.
func Summarize(name string, full schema.History, days int, now time.Time) schema.Summary {
	window := time.Duration(days) * schema.Day
	restricted := full.Restrict(now, window)
	summary := schema.Summary{
		Name:              name,
		Days:              days,
		History:           restricted,
		RegularCommitters: []string{},
		RegularSummary:    []schema.AuthorCount{},
		TopIrregular:      []schema.IrregularStat{},
	}
	if len(restricted) == 0 {
		return summary
	}

	lifetime := make(map[string][]time.Time)
	for _, c := range full {
		lifetime[c.Author] = append(lifetime[c.Author], c.Timestamp)
	}
	start := bucketStart(full, now, window)

	regular := make(map[string]bool)
	for _, author := range restricted.Authors() {
		if IsRegular(MonthlyBuckets(lifetime[author], start, now)) {
			regular[author] = true
			summary.RegularCommitters = append(summary.RegularCommitters, author)
		}
	}

	stats := make(map[string]*schema.IrregularStat)
	for _, c := range restricted {
		s, ok := stats[c.Author]
		if !ok {
			s = &schema.IrregularStat{Author: c.Author, First: c.Timestamp, Last: c.Timestamp}
			stats[c.Author] = s
		}
		s.Commits++
		if c.Timestamp.Before(s.First) {
			s.First = c.Timestamp
		}
		if c.Timestamp.After(s.Last) {
			s.Last = c.Timestamp
		}
	}

	for author, s := range stats {
		if regular[author] {
			summary.RegularSummary = append(summary.RegularSummary, schema.AuthorCount{Author: author, Commits: s.Commits})
		} else {
			summary.TopIrregular = append(summary.TopIrregular, *s)
		}
	}
	slices.SortFunc(summary.RegularSummary, func(a, b schema.AuthorCount) int {
		return byCountThenAuthor(a.Commits, b.Commits, a.Author, b.Author)
	})
	slices.SortFunc(summary.TopIrregular, func(a, b schema.IrregularStat) int {
		return byCountThenAuthor(a.Commits, b.Commits, a.Author, b.Author)
	})
	if len(summary.TopIrregular) > schema.TopIrregularLimit {
		summary.TopIrregular = summary.TopIrregular[:schema.TopIrregularLimit]
	}
	return summary
}

// MakeSummaries runs Summarize independently for every window.
func MakeSummaries(name string, full schema.History, windows []int, now time.Time) map[int]schema.Summary {
	summaries := make(map[int]schema.Summary, len(windows))
	for _, days := range windows {
		summaries[days] = Summarize(name, full, days, now)
	}
	return summaries
}

// byCountThenAuthor orders by count descending, then author ascending.
func byCountThenAuthor(countA, countB int, authorA, authorB string) int {
	if c := cmp.Compare(countB, countA); c != 0 {
		return c
	}
	return cmp.Compare(authorA, authorB)
}
