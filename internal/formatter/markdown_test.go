package formatter

import (
	"testing"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

func TestMarkdown(t *testing.T) {
	tbl := models.NewTable([]string{"First Name", "Phone", "TZ"})
	tbl.Rows = []models.Row{
		{"Ada", "(202) 555-0100", "-5, -8"},
		{"Zoë", "", "-5"},
		{"Gus", "a|b", ""},
	}

	tests := []struct {
		name     string
		limit    int
		expected string
	}{
		{
			name:  "all rows",
			limit: 0,
			expected: `| First Name | Phone          | TZ     |
| ---------- | -------------- | ------ |
| Ada        | (202) 555-0100 | -5, -8 |
| Zoë        |                | -5     |
| Gus        | a\|b           |        |
`,
		},
		{
			name:  "limited",
			limit: 1,
			expected: `| First Name | Phone          | TZ     |
| ---------- | -------------- | ------ |
| Ada        | (202) 555-0100 | -5, -8 |

... 2 more rows
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Markdown(tbl, tt.limit)
			if got != tt.expected {
				t.Errorf("Markdown() mismatch\nGot:\n%s\nExpected:\n%s", got, tt.expected)
			}
		})
	}
}

func TestMarkdown_Empty(t *testing.T) {
	if got := Markdown(nil, 0); got != "" {
		t.Errorf("Markdown(nil) = %q", got)
	}
}
