package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/softsplit/internal/search"
)

// linesPerItem is the number of terminal lines each output occupies.
const linesPerItem = 2

// renderList renders the left panel: matching outputs with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No tables")
		return empty
	}

	var lines []string
	for i, r := range m.results {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		rows := formatResultLine(r, width, i == m.cursor)
		lines = append(lines, rows...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// describe is the plain second line for an output, e.g.
// "120x5 header trimmed match:Probe_Id".
func describe(r search.Result) string {
	parts := []string{fmt.Sprintf("%dx%d", r.Rows, r.Columns)}
	if r.HasHeader {
		parts = append(parts, "header")
	}
	if r.Truncated {
		parts = append(parts, "trimmed")
	}
	if r.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("warn:%d", r.Warnings))
	}
	if r.Match != "" {
		parts = append(parts, "match:"+r.Match)
	}
	return strings.Join(parts, " ")
}

// formatResultLine formats a single output as two lines:
//
//	line 1: [>] file  section
//	line 2:    rows x cols and flags (dimmed)
func formatResultLine(r search.Result, width int, selected bool) []string {
	// Truncate to fit width: leave room for the "> " prefix
	nameMax := width - 2 - runewidth.StringWidth(r.FileKey) - 1
	if nameMax < 0 {
		nameMax = 0
	}
	name := r.Name
	if runewidth.StringWidth(name) > nameMax {
		name = runewidth.Truncate(name, nameMax, "")
	}

	line1 := fmt.Sprintf("%s %s", styleFileKey.Render(r.FileKey), name)
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	// Line 2: shape and flags (dimmed, indented)
	detail := describe(r)
	detailMax := width - 4 // indent
	if detailMax < 0 {
		detailMax = 0
	}
	if runewidth.StringWidth(detail) > detailMax {
		detail = runewidth.Truncate(detail, detailMax, "")
	}
	style := styleDim
	switch {
	case r.Warnings > 0:
		style = styleWarnings
	case r.Truncated:
		style = styleTrimmed
	}
	line2 := "    " + style.Render(detail)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
