package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders left-aligned columns separated by spaces, without
// borders. The header row, when set, is rendered bold.
type Table struct {
	header     []string
	rows       [][]string
	colWidths  []int
	colPadding int
}

// NewTable creates a new table with the specified number of columns
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// SetHeader sets the header row.
func (t *Table) SetHeader(cells ...string) {
	t.header = t.fit(cells)
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, t.fit(cells))
}

func (t *Table) fit(cells []string) []string {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	return row
}

// String renders the table as a string
func (t *Table) String() string {
	if len(t.rows) == 0 && t.header == nil {
		return ""
	}

	var sb strings.Builder
	if t.header != nil {
		t.writeRow(&sb, t.header, Bold)
	}
	for _, row := range t.rows {
		t.writeRow(&sb, row, lipgloss.NewStyle())
	}
	return sb.String()
}

func (t *Table) writeRow(sb *strings.Builder, row []string, style lipgloss.Style) {
	padding := strings.Repeat(" ", t.colPadding)
	for i, cell := range row {
		if i > 0 {
			sb.WriteString(padding)
		}
		sb.WriteString(style.Render(cell))
		if i < len(row)-1 {
			sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
		}
	}
	sb.WriteString("\n")
}
