package formatter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// Markdown renders the first limit rows of tbl as an aligned markdown table.
// A limit of zero or less renders every row.
func Markdown(tbl *models.Table, limit int) string {
	if tbl == nil || len(tbl.Header) == 0 {
		return ""
	}

	rows := tbl.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	table := make([][]string, 0, len(rows)+1)
	table = append(table, tbl.Header)

	for _, row := range rows {
		cells := make([]string, len(tbl.Header))
		for i := range cells {
			if i < len(row) {
				cells[i] = escapeCell(row[i])
			}
		}

		table = append(table, cells)
	}

	// Calculate max widths (using display width)
	colWidths := make([]int, len(tbl.Header))

	for _, row := range table {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	// Ensure min width for separator
	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	var sb strings.Builder

	writeRow := func(cells []string) {
		sb.WriteString("|")

		for j, content := range cells {
			sb.WriteString(" ")
			sb.WriteString(content)

			// Pad with spaces based on display width
			if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(table[0])

	sb.WriteString("|")

	for _, w := range colWidths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")

	for _, row := range table[1:] {
		writeRow(row)
	}

	if hidden := len(tbl.Rows) - len(rows); hidden > 0 {
		fmt.Fprintf(&sb, "\n... %d more rows\n", hidden)
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
