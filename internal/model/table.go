package model

import "time"

// Table is a row-major grid of cell strings.
// Rows may have different lengths; a Table is never padded.
type Table [][]string

// NumRows returns the number of rows.
func (t Table) NumRows() int {
	return len(t)
}

// NumCols returns the width of the widest row.
func (t Table) NumCols() int {
	cols := 0
	for _, row := range t {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// IsEmpty reports whether the table has no rows.
func (t Table) IsEmpty() bool {
	return len(t) == 0
}

// ExtractedTable is the first table found in a file.
type ExtractedTable struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	FileID     int64     `json:"source_file_id"`
	Rows       Table     `json:"rows"`
	NRows      int       `json:"n_rows"`
	NCols      int       `json:"n_cols"`
	CreatedAt  time.Time `json:"created_at"`
}
