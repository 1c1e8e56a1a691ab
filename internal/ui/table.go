package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Column is one table column. Width counts visible cells; Right aligns
// numeric columns such as epoch and input indices.
type Column struct {
	Title string
	Width int
	Right bool
}

// Row holds the cells of one line, in column order.
type Row []string

// Table renders fixed-width rows for the reports and outputs lists.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // -1 for none
}

// NewTable creates an empty table with no selection.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// fit cuts or pads s to exactly width visible cells. Escape codes do not
// count towards the width.
func fit(s string, width int, right bool) string {
	if lipgloss.Width(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	gap := strings.Repeat(" ", width-lipgloss.Width(s))
	if right {
		return gap + s
	}
	return s + gap
}

func pad(s string, width int) string { return fit(s, width, false) }

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	tableCellStyle   = lipgloss.NewStyle().Foreground(ColorValue)
	tableRuleStyle   = lipgloss.NewStyle().Foreground(ColorMeta)
)

func (t *Table) line(cell func(i int, c Column) string) string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		parts[i] = cell(i, c)
	}
	return strings.Join(parts, " ") + "\n"
}

// Render draws the header, a rule and every row. The selected row loses its
// cell colors so the highlight reads evenly.
func (t *Table) Render() string {
	var sb strings.Builder
	sb.WriteString(t.line(func(_ int, c Column) string {
		return tableHeaderStyle.Render(fit(c.Title, c.Width, c.Right))
	}))
	sb.WriteString(t.line(func(_ int, c Column) string {
		return tableRuleStyle.Render(strings.Repeat("-", c.Width))
	}))
	for r, row := range t.Rows {
		sb.WriteString(t.line(func(i int, c Column) string {
			var v string
			if i < len(row) {
				v = row[i]
			}
			if r == t.SelIdx {
				return StyleSelected.Render(fit(ansi.Strip(v), c.Width, c.Right))
			}
			return tableCellStyle.Render(fit(v, c.Width, c.Right))
		}))
	}
	return sb.String()
}

// KeyValueBlock renders labelled values in a rounded box. Keys are aligned
// on the longest one.
func KeyValueBlock(title string, pairs [][2]string) string {
	keyWidth := 0
	for _, p := range pairs {
		keyWidth = max(keyWidth, lipgloss.Width(p[0])+1)
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title) + "\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-*s", keyWidth, p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
