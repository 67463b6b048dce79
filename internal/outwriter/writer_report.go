package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
)

// writeJSONSummaries marshals the per-window summaries of one repository.
func writeJSONSummaries(w io.Writer, repo string, summaries map[int]schema.Summary, windows []int) error {
	type JSONWindow struct {
		Label   string `json:"label"`
		Commits int    `json:"commits"`
		schema.Summary
	}
	type JSONReport struct {
		Repo    string       `json:"repo"`
		Windows []JSONWindow `json:"windows"`
	}

	report := JSONReport{Repo: repo, Windows: make([]JSONWindow, 0, len(windows))}
	for _, days := range windows {
		s := summaries[days]
		report.Windows = append(report.Windows, JSONWindow{
			Label:   contract.GetPlainLabel(s.RegularCount()),
			Commits: len(s.History),
			Summary: s,
		})
	}
	return writeJSON(w, report)
}

// writeCSVSummaries writes one row per contributor and window.
func writeCSVSummaries(w io.Writer, summaries map[int]schema.Summary, windows []int) error {
	header := []string{"days", "category", "author", "commits", "first", "last"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, days := range windows {
			s := summaries[days]
			d := strconv.Itoa(days)
			for _, r := range s.RegularSummary {
				if err := cw.Write([]string{d, "regular", r.Author, strconv.Itoa(r.Commits), "", ""}); err != nil {
					return err
				}
			}
			for _, r := range s.TopIrregular {
				record := []string{
					d,
					"irregular",
					r.Author,
					strconv.Itoa(r.Commits),
					r.First.Format(contract.DateTimeFormat),
					r.Last.Format(contract.DateTimeFormat),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
