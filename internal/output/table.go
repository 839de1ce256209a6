package output

import (
	"io"
	"strings"
)

// columnGap separates table columns.
const columnGap = "  "

// Table renders left-aligned columns for text output. Column widths grow
// as rows are added.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	t := &Table{headers: headers}
	t.fit(headers)
	return t
}

// AddRow adds a row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
	t.fit(cells)
}

func (t *Table) fit(cells []string) {
	for len(t.widths) < len(cells) {
		t.widths = append(t.widths, 0)
	}
	for i, c := range cells {
		t.widths[i] = max(t.widths[i], len(c))
	}
}

// Render writes the header, a dashed rule and every row.
func (t *Table) Render(w io.Writer) error {
	_, err := io.WriteString(w, t.String())
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	if len(t.widths) == 0 {
		return ""
	}

	var sb strings.Builder
	if len(t.headers) > 0 {
		t.line(&sb, t.headers)
		rule := make([]string, len(t.widths))
		for i, n := range t.widths {
			rule[i] = strings.Repeat("-", n)
		}
		t.line(&sb, rule)
	}
	for _, row := range t.rows {
		t.line(&sb, row)
	}
	return sb.String()
}

func (t *Table) line(sb *strings.Builder, cells []string) {
	var row strings.Builder
	for i, n := range t.widths {
		if i > 0 {
			row.WriteString(columnGap)
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		row.WriteString(cell)
		row.WriteString(strings.Repeat(" ", n-len(cell)))
	}
	sb.WriteString(strings.TrimRight(row.String(), " "))
	sb.WriteByte('\n')
}
