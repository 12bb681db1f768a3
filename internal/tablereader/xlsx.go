package tablereader

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads rows from an XLSX workbook on disk.
type XLSXReader struct {
	path string
}

// NewXLSXReader creates a reader for the given workbook path. The file is
// opened on each Read so a rewritten file is picked up between runs.
func NewXLSXReader(path string) *XLSXReader {
	return &XLSXReader{path: path}
}

// Read implements Reader. Rows are returned in sheet order; fully empty rows
// within the range are skipped.
func (r *XLSXReader) Read(ctx context.Context, sheet string, columns []string, startRow, endRow int) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("sheet %q not found. Available sheets: %s", sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rawRows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	indices, err := columnIndices(columns)
	if err != nil {
		return nil, err
	}

	if startRow < 1 {
		startRow = 1
	}

	var rows []Row
	for i := startRow - 1; i < len(rawRows) && i < endRow; i++ {
		rawRow := rawRows[i]
		if isEmptyRow(rawRow) {
			continue
		}

		row := make(Row, len(indices))
		for letter, idx := range indices {
			if idx < len(rawRow) {
				row[letter] = rawRow[idx]
			} else {
				row[letter] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Columns expands an inclusive column-letter range, e.g. ("A","F").
func Columns(from, to string) []string {
	start, err := excelize.ColumnNameToNumber(from)
	if err != nil {
		return nil
	}
	end, err := excelize.ColumnNameToNumber(to)
	if err != nil || end < start {
		return nil
	}

	letters := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		name, _ := excelize.ColumnNumberToName(n)
		letters = append(letters, name)
	}
	return letters
}

// columnIndices maps column letters to 0-based slice indices.
func columnIndices(columns []string) (map[string]int, error) {
	indices := make(map[string]int, len(columns))
	for _, letter := range columns {
		n, err := excelize.ColumnNameToNumber(letter)
		if err != nil {
			return nil, fmt.Errorf("invalid column %q: %w", letter, err)
		}
		indices[letter] = n - 1
	}
	return indices, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
