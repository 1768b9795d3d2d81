package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/softsplit/internal/table"
)

const (
	colorReset   = "\033[0m"
	colorHeader  = "\033[1;34m" // bold blue
	colorDim     = "\033[2m"
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

const (
	defaultMaxRows = 50
	maxCellWidth   = 32
	cellGap        = "  "
)

type Options struct {
	HasHeader bool
	MaxRows   int    // rows shown after the header (0 = 50, <0 = all)
	Width     int    // clip width (0 = no clip)
	Query     string // highlighted in the header row
	Color     bool
}

// highlightKeywords wraps case-insensitive matches of query in bold red ANSI
// codes, switching back to base after each match.
func highlightKeywords(text, query, base string) string {
	if query == "" {
		return text
	}
	lower := strings.ToLower(query)
	i := 0
	for i < len(text) {
		idx := strings.Index(strings.ToLower(text[i:]), lower)
		if idx < 0 {
			break
		}
		pos := i + idx
		orig := text[pos : pos+len(query)]
		replacement := colorBoldRed + orig + colorReset + base
		text = text[:pos] + replacement + text[pos+len(query):]
		i = pos + len(replacement)
	}
	return text
}

// columnWidths measures the visible width of each column over the header and
// the shown rows, capped at maxCellWidth.
func columnWidths(t *table.Table, rows [][]string) []int {
	widths := make([]int, t.Width())
	measure := func(fields []string) {
		for i, f := range fields {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			w := runewidth.StringWidth(f)
			if w > maxCellWidth {
				w = maxCellWidth
			}
			if w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Columns)
	for _, r := range rows {
		measure(r)
	}
	return widths
}

// formatRow pads each field to its column width. Absent fields render blank.
func formatRow(fields []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		f := ""
		if i < len(fields) {
			f = fields[i]
		}
		if runewidth.StringWidth(f) > w {
			f = runewidth.Truncate(f, w, "~")
		}
		cells[i] = runewidth.FillRight(f, w)
	}
	return strings.TrimRight(strings.Join(cells, cellGap), " ")
}

func clip(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	return runewidth.Truncate(line, width, "")
}

// RenderTable reads the TSV at path and lays it out in aligned columns.
func RenderTable(path string, opts Options) (string, error) {
	t, err := table.ReadFile(path, opts.HasHeader)
	if err != nil {
		return "", fmt.Errorf("read table: %w", err)
	}
	return Table(t, opts), nil
}

// Table lays t out in aligned columns.
func Table(t *table.Table, opts Options) string {
	if opts.MaxRows == 0 {
		opts.MaxRows = defaultMaxRows
	}
	if t.Empty() {
		return "(empty table)\n"
	}

	rows := t.Rows
	hidden := 0
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		hidden = len(rows) - opts.MaxRows
		rows = rows[:opts.MaxRows]
	}
	widths := columnWidths(t, rows)

	var b strings.Builder
	writeLine := func(s, color string) {
		s = clip(s, opts.Width)
		if opts.Color && color != "" {
			s = color + s + colorReset
		}
		b.WriteString(s)
		b.WriteString("\n")
	}

	if t.HasHeader() {
		header := clip(formatRow(t.Columns, widths), opts.Width)
		if opts.Color {
			header = colorHeader + highlightKeywords(header, opts.Query, colorHeader) + colorReset
		}
		b.WriteString(header)
		b.WriteString("\n")
		rule := make([]string, len(t.Columns))
		for i, w := range widths[:len(t.Columns)] {
			rule[i] = strings.Repeat("-", w)
		}
		writeLine(strings.Join(rule, cellGap), colorDim)
	}

	for _, r := range rows {
		writeLine(formatRow(r, widths), "")
	}

	if hidden > 0 {
		writeLine(fmt.Sprintf("... (%d more rows)", hidden), colorDim)
	}
	if n := len(t.Warnings); n > 0 {
		writeLine(fmt.Sprintf("(%d rows wider than the header)", n), colorDim)
	}
	return b.String()
}
