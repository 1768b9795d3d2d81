package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/softsplit/internal/render"
	"github.com/Zuo-Peng/softsplit/internal/search"
)

// previewRows caps how much of a table the preview panel reads.
const previewRows = 500

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the table preview async.
func loadPreviewCmd(r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, err := render.RenderTable(r.Path, render.Options{
			HasHeader: r.HasHeader,
			MaxRows:   previewRows,
			Width:     width,
			Query:     query,
			Color:     true,
		})
		return previewRenderedMsg{
			key:     previewCacheKey(r),
			content: content,
			err:     err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}

func previewCacheKey(r search.Result) string {
	return r.FileKey + "/" + r.Name
}
