package export

import (
	"reflect"
	"testing"
	"time"

	"github.com/FranksOps/jast/internal/results"
	"github.com/FranksOps/jast/internal/serp"
	"github.com/FranksOps/jast/internal/sheet"
)

func sampleTable() *results.Table {
	tbl := results.NewTable(2)
	tbl.Append(results.Row{
		URL: "a.com", SourceRow: 1, TotalResults: 4,
		Snippets: []serp.Snippet{{HTML: "alpha", Link: "https://a.com/x"}},
	})
	tbl.Append(results.Row{URL: "c.com", SourceRow: 3, Failed: true})
	return tbl
}

func sampleSheet() sheet.Rows {
	return sheet.Rows{
		{"Company", "", "Website", "Country"},
		{"Acme", "x1", "https://www.a.com", "NL"},
		{"Blank", "x2", "", "DE"}, // no URL: never searched
		{"Corp", "x3", "https://c.com"},
	}
}

func TestBuild_NoExtraColumns(t *testing.T) {
	tbl := sampleTable()
	doc := Build(tbl, Options{Query: "net zero", Original: sampleSheet()})

	if doc.SheetName != "Results" {
		t.Errorf("unexpected sheet name %q", doc.SheetName)
	}
	if !reflect.DeepEqual(doc.Rows[0], []string{"Searched terms:", "net zero"}) {
		t.Errorf("unexpected banner %q", doc.Rows[0])
	}
	// Everything after the banner is exactly the on-screen table.
	if !reflect.DeepEqual(doc.Rows[1:], tbl.Matrix()) {
		t.Errorf("export differs from table:\n got %q\nwant %q", doc.Rows[1:], tbl.Matrix())
	}
	if !reflect.DeepEqual(doc.BoldRows, []int{1}) {
		t.Errorf("expected bold header row 1, got %v", doc.BoldRows)
	}
	if !reflect.DeepEqual(doc.ColWidths, []float64{15, 15, 50, 50}) {
		t.Errorf("unexpected widths %v", doc.ColWidths)
	}
	wantMerges := []sheet.Merge{{Row: 3, FirstCol: 1, LastCol: 3}}
	if !reflect.DeepEqual(doc.Merges, wantMerges) {
		t.Errorf("expected failed row merged %v, got %v", wantMerges, doc.Merges)
	}
}

func TestBuild_WithExtraColumns(t *testing.T) {
	doc := Build(sampleTable(), Options{
		Query:    "net zero",
		Original: sampleSheet(),
		Selected: []int{3, 0, 1, 3},
	})

	want := [][]string{
		{"Searched terms:", "net zero"},
		{"Company", "Column 2", "Country", " ", "URL Used", "# of Results", "", ""},
		{"Acme", "x1", "NL", " ", "a.com", "4", "alpha https://a.com/x", ""},
		{"Corp", "x3", "", " ", "c.com", "Error fetching results", "", ""},
	}
	if !reflect.DeepEqual(doc.Rows, want) {
		t.Errorf("unexpected rows:\n got %q\nwant %q", doc.Rows, want)
	}

	for i := 2; i < len(doc.Rows); i++ {
		if len(doc.Rows[i]) != len(doc.Rows[1]) {
			t.Errorf("row %d has %d cells, header has %d", i, len(doc.Rows[i]), len(doc.Rows[1]))
		}
	}

	wantWidths := []float64{10, 10, 10, 3, 15, 15, 50, 50}
	if !reflect.DeepEqual(doc.ColWidths, wantWidths) {
		t.Errorf("expected widths %v, got %v", wantWidths, doc.ColWidths)
	}
	wantMerges := []sheet.Merge{{Row: 3, FirstCol: 5, LastCol: 7}}
	if !reflect.DeepEqual(doc.Merges, wantMerges) {
		t.Errorf("expected failed row merged %v, got %v", wantMerges, doc.Merges)
	}
}

func TestBuild_NoMergeWithoutSnippetColumns(t *testing.T) {
	tbl := results.NewTable(0)
	tbl.Append(results.Row{URL: "down.com", Failed: true})
	if doc := Build(tbl, Options{Query: "q"}); len(doc.Merges) != 0 {
		t.Errorf("expected no merges, got %v", doc.Merges)
	}
}

func TestBuild_SelectionWithoutOriginal(t *testing.T) {
	tbl := sampleTable()
	doc := Build(tbl, Options{Query: "q", Selected: []int{0}})
	if !reflect.DeepEqual(doc.Rows[1:], tbl.Matrix()) {
		t.Error("selection without an original sheet should not splice")
	}
}

func TestColumnLabel(t *testing.T) {
	rows := sampleSheet()
	if got := ColumnLabel(rows, 0); got != "Company" {
		t.Errorf("expected Company, got %q", got)
	}
	if got := ColumnLabel(rows, 1); got != "Column 2" {
		t.Errorf("expected Column 2, got %q", got)
	}
	if got := ColumnLabel(rows, 9); got != "Column 10" {
		t.Errorf("expected Column 10, got %q", got)
	}
}

func TestDefaultFilename(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := DefaultFilename("  net-zero & climate!! ", now)
	want := "Jast_Result_20260102T030405_net_zero_climate_.xlsx"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalizeFilename(t *testing.T) {
	tests := map[string]string{
		"":              "Jast_Results.xlsx",
		"   ":           "Jast_Results.xlsx",
		"report":        "report.xlsx",
		" report.xlsx ": "report.xlsx",
		"report.xls":    "report.xls.xlsx",
	}
	for in, want := range tests {
		if got := NormalizeFilename(in); got != want {
			t.Errorf("NormalizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
