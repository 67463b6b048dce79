// Package outwriter has output and writer logic.
package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"golang.org/x/term"
)

// PrintSummaries outputs the per-window report of one repository, dispatching
// based on the output format configured.
func PrintSummaries(summaries map[int]schema.Summary, cfg *contract.Config) error {
	windows := orderedWindows(summaries, cfg.Windows)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONSummaries(w, cfg.Repo, summaries, windows)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSummaries(w, summaries, windows)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printReport(w, summaries, windows, cfg)
		}, "Wrote report"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// PrintSummaryRows outputs the rows of a batch run.
func PrintSummaryRows(rows []schema.SummaryRow, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSummaryCSV(w, rows, cfg.Windows)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printRowsTable(w, rows, cfg)
		}, "Wrote report"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

// WriteSummaryCSV writes the batch summary with one column per window.
func WriteSummaryCSV(rows []schema.SummaryRow, windows []int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := writeSummaryCSV(file, rows, windows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeSummaryCSV writes rows as repo, <window>..., downloads_per_day.
func writeSummaryCSV(w io.Writer, rows []schema.SummaryRow, windows []int) error {
	header := []string{"repo"}
	for _, days := range windows {
		header = append(header, fmt.Sprint(days))
	}
	header = append(header, "downloads_per_day")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			record := []string{r.Repo}
			for _, days := range windows {
				if n, ok := r.Counts[days]; ok {
					record = append(record, fmt.Sprint(n))
				} else {
					record = append(record, "")
				}
			}
			record = append(record, r.DownloadsPerDay)
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// orderedWindows lists the windows in configured order, followed by any other
// window present in summaries from longest to shortest.
func orderedWindows(summaries map[int]schema.Summary, configured []int) []int {
	var windows []int
	for _, days := range configured {
		if _, ok := summaries[days]; ok && !slices.Contains(windows, days) {
			windows = append(windows, days)
		}
	}
	rest := slices.SortedFunc(maps.Keys(summaries), func(a, b int) int { return cmp.Compare(b, a) })
	for _, days := range rest {
		if !slices.Contains(windows, days) {
			windows = append(windows, days)
		}
	}
	return windows
}

// GetMaxNameWidth calculates the maximum width for author and repository
// names in table output based on terminal width.
func GetMaxNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Commits + First + Last columns with borders and padding
	available := termWidth - 60
	if available < 15 {
		return 15
	}
	if available > 50 {
		return 50
	}
	return available
}
