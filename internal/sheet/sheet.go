// Package sheet reads and writes xlsx workbooks as row-major string grids.
package sheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a workbook has no sheet with the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Rows is a row-major cell grid. Row 0 is conventionally the header.
// Rows may be ragged: trailing empty cells are not stored.
type Rows [][]string

// Cell returns the value at row r, column c, or "" when the cell is absent.
func (rows Rows) Cell(r, c int) string {
	if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// Workbook is a decoded spreadsheet: ordered sheet names and their cell grids.
type Workbook struct {
	Names  []string
	Sheets map[string]Rows
}

// Sheet returns the rows of the named sheet.
func (wb *Workbook) Sheet(name string) (Rows, error) {
	rows, ok := wb.Sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return rows, nil
}

// Decode parses workbook bytes into sheet names and row grids.
func Decode(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sheet: open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{
		Names:  f.GetSheetList(),
		Sheets: make(map[string]Rows),
	}
	for _, name := range wb.Names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet: read rows of %q: %w", name, err)
		}
		wb.Sheets[name] = rows
	}
	return wb, nil
}

// Document describes a single-sheet workbook to be written.
type Document struct {
	// SheetName defaults to "Sheet1" when empty.
	SheetName string
	Rows      [][]string
	// ColWidths holds per-column widths in characters, starting at column A.
	// Zero entries leave the default width.
	ColWidths []float64
	// BoldRows lists 0-based row indexes whose populated cells are set in bold.
	BoldRows []int
	// Merges lists cell ranges shown as one cell holding the first cell's value.
	Merges []Merge
}

// Merge spans columns FirstCol..LastCol (0-based, inclusive) of Row.
type Merge struct {
	Row      int
	FirstCol int
	LastCol  int
}

// Encode writes doc as an xlsx workbook to w.
func Encode(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	name := doc.SheetName
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("sheet: rename sheet: %w", err)
		}
	}

	for i, row := range doc.Rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("sheet: row %d: %w", i, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("sheet: write row %d: %w", i, err)
		}
	}

	if len(doc.BoldRows) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("sheet: bold style: %w", err)
		}
		for _, r := range doc.BoldRows {
			if r < 0 || r >= len(doc.Rows) || len(doc.Rows[r]) == 0 {
				continue
			}
			first, _ := excelize.CoordinatesToCellName(1, r+1)
			last, _ := excelize.CoordinatesToCellName(len(doc.Rows[r]), r+1)
			if err := f.SetCellStyle(name, first, last, style); err != nil {
				return fmt.Errorf("sheet: style row %d: %w", r, err)
			}
		}
	}

	for _, m := range doc.Merges {
		if m.Row < 0 || m.FirstCol < 0 || m.LastCol <= m.FirstCol {
			continue
		}
		first, err := excelize.CoordinatesToCellName(m.FirstCol+1, m.Row+1)
		if err != nil {
			return fmt.Errorf("sheet: merge on row %d: %w", m.Row, err)
		}
		last, err := excelize.CoordinatesToCellName(m.LastCol+1, m.Row+1)
		if err != nil {
			return fmt.Errorf("sheet: merge on row %d: %w", m.Row, err)
		}
		if err := f.MergeCell(name, first, last); err != nil {
			return fmt.Errorf("sheet: merge %s:%s: %w", first, last, err)
		}
	}

	for i, width := range doc.ColWidths {
		if width <= 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("sheet: column %d: %w", i, err)
		}
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("sheet: width of %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("sheet: write workbook: %w", err)
	}
	return nil
}
