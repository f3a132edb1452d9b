// Package results holds the per-URL outcome table of a batch search run.
package results

import (
	"strconv"
	"strings"
	"sync"

	"github.com/FranksOps/jast/internal/serp"
	"github.com/PuerkitoBio/goquery"
)

const (
	HeaderURL   = "URL Used"
	HeaderCount = "# of Results"
	// FailureText fills the merged cell of a failed row.
	FailureText = "Error fetching results"
)

// Row is the outcome for one extracted URL.
type Row struct {
	URL string
	// SourceRow is the index of the originating row in the loaded sheet.
	SourceRow    int
	TotalResults int64
	Snippets     []serp.Snippet
	Failed       bool
	RateLimited  bool
	// Err holds the failure reason for logs and reports; it is not exported to the sheet.
	Err string
}

// Table accumulates rows in append order. It is safe for concurrent use.
type Table struct {
	mu           sync.RWMutex
	snippetCount int
	rows         []Row
}

// NewTable returns an empty table with snippetCount snippet columns.
func NewTable(snippetCount int) *Table {
	if snippetCount < 0 {
		snippetCount = 0
	}
	return &Table{snippetCount: snippetCount}
}

// Reset drops all rows and sets a new snippet column count.
func (t *Table) Reset(snippetCount int) {
	if snippetCount < 0 {
		snippetCount = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snippetCount = snippetCount
	t.rows = nil
}

// Append adds row at the end. Snippets beyond the column count are dropped.
func (t *Table) Append(row Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(row.Snippets) > t.snippetCount {
		row.Snippets = row.Snippets[:t.snippetCount]
	}
	t.rows = append(t.rows, row)
}

// SnippetCount returns the number of snippet columns.
func (t *Table) SnippetCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snippetCount
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Rows returns a copy of the data rows.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Header returns the column labels: URL, count, then one blank label per snippet column.
func (t *Table) Header() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return header(t.snippetCount)
}

func header(snippetCount int) []string {
	h := make([]string, 2+snippetCount)
	h[0] = HeaderURL
	h[1] = HeaderCount
	return h
}

// Matrix renders the header and every data row as equal-length text rows.
// A failed row carries FailureText in the count column and blanks after it.
func (t *Table) Matrix() [][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := make([][]string, 0, len(t.rows)+1)
	m = append(m, header(t.snippetCount))
	for _, r := range t.rows {
		m = append(m, cells(r, t.snippetCount))
	}
	return m
}

// Snapshot returns Matrix, Rows and SnippetCount taken under a single lock,
// so Matrix()[i+1] always describes Rows()[i].
func (t *Table) Snapshot() (matrix [][]string, rows []Row, snippetCount int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows = make([]Row, len(t.rows))
	copy(rows, t.rows)
	matrix = make([][]string, 0, len(rows)+1)
	matrix = append(matrix, header(t.snippetCount))
	for _, r := range rows {
		matrix = append(matrix, cells(r, t.snippetCount))
	}
	return matrix, rows, t.snippetCount
}

func cells(r Row, snippetCount int) []string {
	out := make([]string, 2+snippetCount)
	out[0] = r.URL
	if r.Failed {
		out[1] = FailureText
		return out
	}
	out[1] = strconv.FormatInt(r.TotalResults, 10)
	for i := 0; i < snippetCount && i < len(r.Snippets); i++ {
		out[2+i] = SnippetText(r.Snippets[i])
	}
	return out
}

// SnippetText flattens a snippet to its visible text followed by its link,
// with runs of whitespace collapsed to single spaces.
func SnippetText(s serp.Snippet) string {
	text := s.HTML
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.HTML)); err == nil {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text+" "+s.Link), " ")
}
