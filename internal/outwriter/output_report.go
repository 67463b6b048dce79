package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/osshealth/internal/contract"
	"github.com/huangsam/osshealth/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// printReport prints, per window, the regular committers and the top
// non-regular contributors, followed by a days to regular count summary.
func printReport(w io.Writer, summaries map[int]schema.Summary, windows []int, cfg *contract.Config) error {
	header, label := formatters(cfg)
	nameWidth := GetMaxNameWidth(cfg)

	for _, days := range windows {
		s := summaries[days]
		if _, err := fmt.Fprintln(w, header(fmt.Sprintf("days=%d; %d regular committers", days, s.RegularCount()))); err != nil {
			return err
		}

		regular := make([][]string, 0, len(s.RegularSummary))
		for _, r := range s.RegularSummary {
			regular = append(regular, []string{contract.TruncatePath(r.Author, nameWidth), strconv.Itoa(r.Commits)})
		}
		if err := renderTable(w, []string{"Author", "Commits"}, regular); err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, "Top non-regular contributors:"); err != nil {
			return err
		}
		irregular := make([][]string, 0, len(s.TopIrregular))
		for _, r := range s.TopIrregular {
			irregular = append(irregular, []string{
				contract.TruncatePath(r.Author, nameWidth),
				strconv.Itoa(r.Commits),
				r.First.Format(contract.DateTimeFormat),
				r.Last.Format(contract.DateTimeFormat),
			})
		}
		if err := renderTable(w, []string{"Author", "Commits", "First", "Last"}, irregular); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "---"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, header("Summary:")); err != nil {
		return err
	}
	data := make([][]string, 0, len(windows))
	for _, days := range windows {
		n := summaries[days].RegularCount()
		data = append(data, []string{strconv.Itoa(days), strconv.Itoa(n), label(n)})
	}
	return renderTable(w, []string{"Days", "Authors", "Label"}, data)
}

// printRowsTable prints one line per repository of a batch run.
func printRowsTable(w io.Writer, rows []schema.SummaryRow, cfg *contract.Config) error {
	_, label := formatters(cfg)
	nameWidth := GetMaxNameWidth(cfg)

	headers := []string{"Rank", "Repo"}
	for _, days := range cfg.Windows {
		headers = append(headers, strconv.Itoa(days))
	}
	headers = append(headers, "Label", "Downloads/day")

	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		row := []string{strconv.Itoa(i + 1), contract.TruncatePath(r.Repo, nameWidth)}
		for _, days := range cfg.Windows {
			row = append(row, strconv.Itoa(r.Counts[days]))
		}
		// The label follows the longest configured window
		longest := 0
		if len(cfg.Windows) > 0 {
			longest = r.Counts[cfg.Windows[0]]
		}
		row = append(row, label(longest), r.DownloadsPerDay)
		data = append(data, row)
	}
	if err := renderTable(w, headers, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d repositories. Cache backend: %s\n", len(rows), cfg.CacheBackend)
	return err
}

// renderTable writes a right-aligned tablewriter table.
func renderTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatters returns the header and label functions, colored or plain.
func formatters(cfg *contract.Config) (header func(string) string, label func(int) string) {
	if cfg.UseColors {
		return func(s string) string { return contract.HeaderColor.Sprint(s) }, contract.GetColorLabel
	}
	return func(s string) string { return s }, contract.GetPlainLabel
}
