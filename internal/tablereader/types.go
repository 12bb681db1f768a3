package tablereader

import "context"

// Row holds one spreadsheet row with raw cell values keyed by column letter
// ("A", "B", ...). Cells outside the requested column range are absent.
type Row map[string]string

// Reader produces ordered raw rows from a tabular source.
type Reader interface {
	// Read returns the rows of the given sheet restricted to the requested
	// column letters and the 1-based inclusive row range.
	Read(ctx context.Context, sheet string, columns []string, startRow, endRow int) ([]Row, error)
}
