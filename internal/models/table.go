// Package models defines the tabular data structures shared across the pipeline.
package models

// Row is one record of a Table, aligned with Table.Header.
type Row []string

// Table is an ordered, string-typed view of a contact export.
type Table struct {
	Header []string
	Rows   []Row
}

// NewTable creates an empty table with the given header.
func NewTable(header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)

	return &Table{Header: h}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}

	return -1
}

// Value returns the cell at row r for column col, or "" when the column is absent.
func (t *Table) Value(r int, col string) string {
	idx := t.Index(col)
	if idx < 0 || idx >= len(t.Rows[r]) {
		return ""
	}

	return t.Rows[r][idx]
}

// Set writes a cell. Unknown columns are ignored.
func (t *Table) Set(r int, col, value string) {
	idx := t.Index(col)
	if idx < 0 {
		return
	}

	t.Rows[r][idx] = value
}

// Column returns a copy of all values in the named column.
func (t *Table) Column(col string) []string {
	out := make([]string, len(t.Rows))

	idx := t.Index(col)
	if idx < 0 {
		return out
	}

	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}

	return out
}

// Filter returns a new table holding the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(r int) bool) *Table {
	out := NewTable(t.Header)

	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}

// Select projects the table onto cols. Missing columns are emitted as empty cells.
func (t *Table) Select(cols []string) *Table {
	out := NewTable(cols)

	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
	}

	for _, row := range t.Rows {
		next := make(Row, len(cols))

		for i, j := range idx {
			if j >= 0 && j < len(row) {
				next[i] = row[j]
			}
		}

		out.Rows = append(out.Rows, next)
	}

	return out
}

// AddColumn appends a column. values must have one entry per row.
func (t *Table) AddColumn(col string, values []string) {
	t.Header = append(t.Header, col)

	for i := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}

		t.Rows[i] = append(t.Rows[i], v)
	}
}

// ReplaceColumn splices cols in place of col. values[r] holds the new cells for row r.
func (t *Table) ReplaceColumn(col string, cols []string, values [][]string) {
	idx := t.Index(col)
	if idx < 0 {
		return
	}

	header := make([]string, 0, len(t.Header)-1+len(cols))
	header = append(header, t.Header[:idx]...)
	header = append(header, cols...)
	header = append(header, t.Header[idx+1:]...)
	t.Header = header

	for r, row := range t.Rows {
		next := make(Row, 0, len(header))
		next = append(next, row[:idx]...)

		cells := make([]string, len(cols))
		if r < len(values) {
			copy(cells, values[r])
		}

		next = append(next, cells...)
		next = append(next, row[idx+1:]...)
		t.Rows[r] = next
	}
}
