package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecode(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "A1", "Company")
	f.SetCellValue("Sheet1", "B1", "Website")
	f.SetCellValue("Sheet1", "A2", "Acme")
	f.SetCellValue("Sheet1", "B2", "https://www.acme.com/about")
	f.SetCellValue("Sheet1", "A3", 42)
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("NewSheet failed: %v", err)
	}
	f.SetCellValue("Other", "A1", "only")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to write test workbook: %v", err)
	}

	wb, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(wb.Names) != 2 || wb.Names[0] != "Sheet1" || wb.Names[1] != "Other" {
		t.Fatalf("unexpected sheet names %v", wb.Names)
	}

	rows, err := wb.Sheet("Sheet1")
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows.Cell(1, 1) != "https://www.acme.com/about" {
		t.Errorf("unexpected B2 %q", rows.Cell(1, 1))
	}
	if rows.Cell(2, 0) != "42" {
		t.Errorf("expected numeric cell as text 42, got %q", rows.Cell(2, 0))
	}
	// Ragged row: B3 was never set.
	if rows.Cell(2, 1) != "" {
		t.Errorf("expected empty B3, got %q", rows.Cell(2, 1))
	}
	if rows.Cell(99, 0) != "" || rows.Cell(0, -1) != "" {
		t.Error("out-of-range Cell should return empty string")
	}

	if _, err := wb.Sheet("Missing"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("expected ErrSheetNotFound, got %v", err)
	}
}

func TestDecode_NotAWorkbook(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("plain text"))); err == nil {
		t.Fatal("expected error decoding non-xlsx bytes")
	}
}

func TestEncode(t *testing.T) {
	doc := Document{
		SheetName: "Results",
		Rows: [][]string{
			{"Searched terms:", "climate"},
			{"URL Used", "# of Results", ""},
			{"acme.com", "12", "Acme climate pledge https://acme.com/p"},
		},
		ColWidths: []float64{15, 15, 50},
		BoldRows:  []int{1},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	if list := f.GetSheetList(); len(list) != 1 || list[0] != "Results" {
		t.Fatalf("unexpected sheets %v", list)
	}

	got, _ := f.GetCellValue("Results", "A3")
	if got != "acme.com" {
		t.Errorf("expected A3 acme.com, got %q", got)
	}
	got, _ = f.GetCellValue("Results", "B1")
	if got != "climate" {
		t.Errorf("expected B1 climate, got %q", got)
	}

	width, err := f.GetColWidth("Results", "C")
	if err != nil {
		t.Fatalf("GetColWidth failed: %v", err)
	}
	if width != 50 {
		t.Errorf("expected column C width 50, got %v", width)
	}

	styleID, err := f.GetCellStyle("Results", "A2")
	if err != nil {
		t.Fatalf("GetCellStyle failed: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("GetStyle failed: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("expected header row to be bold")
	}

	plainID, _ := f.GetCellStyle("Results", "A3")
	if plainID == styleID {
		t.Error("data rows should not share the header style")
	}
}

func TestEncode_MergedCells(t *testing.T) {
	doc := Document{
		Rows: [][]string{
			{"URL Used", "# of Results", "", ""},
			{"down.com", "Error fetching results", "", ""},
		},
		Merges: []Merge{{Row: 1, FirstCol: 1, LastCol: 3}, {Row: 0, FirstCol: 2, LastCol: 2}},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	merged, err := f.GetMergeCells("Sheet1")
	if err != nil {
		t.Fatalf("GetMergeCells failed: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected 1 merged range, got %d", len(merged))
	}
	if merged[0].GetStartAxis() != "B2" || merged[0].GetEndAxis() != "D2" {
		t.Errorf("expected B2:D2, got %s:%s", merged[0].GetStartAxis(), merged[0].GetEndAxis())
	}
	if merged[0].GetCellValue() != "Error fetching results" {
		t.Errorf("unexpected merged value %q", merged[0].GetCellValue())
	}
}
