// Package export turns a results table into the annotated spreadsheet document.
package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/FranksOps/jast/internal/results"
	"github.com/FranksOps/jast/internal/sheet"
)

const (
	SheetName       = "Results"
	BannerLabel     = "Searched terms:"
	Spacer          = " "
	FallbackName    = "Jast_Results.xlsx"
	extension       = ".xlsx"
	headerRow       = 1
	widthExtra      = 10
	widthSpacer     = 3
	widthURL        = 15
	widthCount      = 15
	widthSnippet    = 50
	timestampLayout = "20060102T150405"
)

// Options selects the optional original-sheet columns to splice in front of the results.
type Options struct {
	Query string
	// Original is the sheet the URLs were extracted from. Nil disables splicing.
	Original sheet.Rows
	// Selected lists column indexes of Original to include. Order and duplicates
	// do not matter; columns are emitted in ascending index order.
	Selected []int
}

// ColumnLabel returns the header text for column idx of an original sheet,
// or "Column N" (1-based) when that header cell is blank.
func ColumnLabel(original sheet.Rows, idx int) string {
	if label := original.Cell(0, idx); strings.TrimSpace(label) != "" {
		return label
	}
	return fmt.Sprintf("Column %d", idx+1)
}

// Build produces the export document: row 0 is the search banner, row 1 the
// header, rows 2+ one per result row. Selected original columns are looked up
// by each result row's SourceRow so they always line up with their URL.
func Build(table *results.Table, opts Options) sheet.Document {
	matrix, rows, snippetCount := table.Snapshot()

	selected := normalizeSelection(opts.Selected)
	splice := len(selected) > 0 && len(opts.Original) > 0

	out := make([][]string, 0, len(matrix)+1)
	out = append(out, []string{BannerLabel, opts.Query})

	// Failed rows show FailureText across the count and snippet columns.
	countCol := 1
	if splice {
		countCol += len(selected) + 1
	}
	var merges []sheet.Merge
	for i, r := range rows {
		if r.Failed && snippetCount > 0 {
			merges = append(merges, sheet.Merge{Row: headerRow + 1 + i, FirstCol: countCol, LastCol: countCol + snippetCount})
		}
	}

	for i, cells := range matrix {
		if !splice {
			out = append(out, cells)
			continue
		}
		extra := make([]string, 0, len(selected)+1+len(cells))
		for _, c := range selected {
			if i == 0 {
				extra = append(extra, ColumnLabel(opts.Original, c))
			} else {
				extra = append(extra, opts.Original.Cell(rows[i-1].SourceRow, c))
			}
		}
		extra = append(extra, Spacer)
		out = append(out, append(extra, cells...))
	}

	return sheet.Document{
		SheetName: SheetName,
		Rows:      out,
		ColWidths: columnWidths(len(selected), splice, snippetCount),
		BoldRows:  []int{headerRow},
		Merges:    merges,
	}
}

func normalizeSelection(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, c := range in {
		if c < 0 {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

func columnWidths(extras int, splice bool, snippetCount int) []float64 {
	var w []float64
	if splice {
		for i := 0; i < extras; i++ {
			w = append(w, widthExtra)
		}
		w = append(w, widthSpacer)
	}
	w = append(w, widthURL, widthCount)
	for i := 0; i < snippetCount; i++ {
		w = append(w, widthSnippet)
	}
	return w
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-zA-Z0-9]`)
	underscore = regexp.MustCompile(`_+`)
)

// DefaultFilename proposes Jast_Result_<timestamp>_<query>.xlsx with the
// query reduced to ASCII letters, digits and single underscores.
func DefaultFilename(query string, now time.Time) string {
	q := nonAlnum.ReplaceAllString(strings.TrimSpace(query), "_")
	q = underscore.ReplaceAllString(q, "_")
	return fmt.Sprintf("Jast_Result_%s_%s%s", now.Format(timestampLayout), q, extension)
}

// NormalizeFilename trims raw, falls back to FallbackName when empty and
// appends the .xlsx extension when missing.
func NormalizeFilename(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return FallbackName
	}
	if !strings.HasSuffix(name, extension) {
		name += extension
	}
	return name
}
