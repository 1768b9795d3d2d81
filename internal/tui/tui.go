package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/softsplit/internal/index"
	"github.com/Zuo-Peng/softsplit/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type searchResultMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

// model is the output browser: a filter line, the matching outputs on the
// left and the selected table on the right.
type model struct {
	db         *index.DB
	searchOpts search.Options
	query      string

	results    []search.Result
	cursor     int
	listOffset int
	chosen     *search.Result

	filter     textinput.Model
	preview    viewport.Model
	previewKey string // file/section currently shown

	width, height int
	ready         bool
	quitting      bool
}

func initialModel(db *index.DB, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Filter by file, section or column..."
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	ti.SetValue(opts.Query)
	ti.Focus()

	return model{
		db:         db,
		searchOpts: opts,
		query:      opts.Query,
		filter:     ti,
		preview:    viewport.New(0, 0),
	}
}

// Run starts the browser and blocks until it exits. If the user picks a
// table, its path is copied to the clipboard and reported on w.
func Run(db *index.DB, opts search.Options, w io.Writer) error {
	final, err := tea.NewProgram(initialModel(db, opts), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m := final.(model); m.chosen != nil {
		copyPath(w, m.chosen.Path)
	}
	return nil
}

// copyPath puts path on the clipboard, falling back to printing it.
func copyPath(w io.Writer, path string) {
	if err := clipboard.WriteAll(path); err != nil {
		fmt.Fprintln(w, path)
		return
	}
	fmt.Fprintf(w, "Copied to clipboard: %s\n", path)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.doFilter(m.query))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		l := m.layout()
		m.preview = newViewport(l.previewW, l.panelH)
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceTickMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.doFilter(msg.query)

	case searchResultMsg:
		return m.setResults(msg)

	case previewRenderedMsg:
		return m.setPreview(msg), nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.layout().panelH
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if r, ok := m.selected(); ok {
			m.chosen = &r
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		return m.moveCursor(-1)

	case key.Matches(msg, keys.Down):
		return m.moveCursor(1)

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(page / 2)
		return m, nil

	case key.Matches(msg, keys.PreviewDown):
		m.preview.LineDown(page / 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if q := m.filter.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, scheduleFilter(q))
	}
	return m, cmd
}

func (m model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.results) {
		return m, nil
	}
	m.cursor = next
	m.adjustListScroll(m.layout().panelH)
	return m, m.loadCurrentPreview()
}

func (m model) setResults(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil
	}
	m.cursor, m.listOffset = 0, 0
	m.previewKey = ""
	if msg.err != nil {
		m.results = nil
		m.preview.SetContent("Error: " + msg.err.Error())
		return m, nil
	}
	m.results = msg.results
	if len(m.results) == 0 {
		m.preview.SetContent("")
		return m, nil
	}
	return m, m.loadCurrentPreview()
}

// setPreview shows a finished render unless the selection has moved on.
func (m model) setPreview(msg previewRenderedMsg) model {
	r, ok := m.selected()
	if msg.key == m.previewKey || (ok && msg.key != previewCacheKey(r)) {
		return m
	}
	if msg.err != nil {
		m.preview.SetContent("Preview error: " + msg.err.Error())
	} else {
		m.preview.SetContent(msg.content)
		m.preview.GotoTop()
	}
	m.previewKey = msg.key
	return m
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}
	l := m.layout()

	list := stylePanelBorder.Width(l.listW).Height(l.panelH).
		Render(m.renderList(l.listW, l.panelH))

	m.preview.Width, m.preview.Height = l.previewW, l.panelH
	preview := styleActiveBorder.Width(l.previewW).Height(l.panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
	return lipgloss.JoinVertical(lipgloss.Left, m.filter.View(), panels, m.statusBar())
}

// layout is the panel geometry for the current window, borders excluded.
type layout struct {
	listW, previewW, panelH int
}

func (m model) layout() layout {
	if m.width <= 0 || m.height <= 0 {
		return layout{listW: 40, previewW: 60, panelH: 20}
	}
	// filter row, status bar and two borders per panel
	return layout{
		listW:    max(m.width*35/100-4, 20),
		previewW: max(m.width*65/100-4, 20),
		panelH:   max(m.height-6, 5),
	}
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d tables", len(m.results)),
		keys.Up.Help().Key + "/" + keys.Down.Help().Key + " select",
		keys.PreviewUp.Help().Key + "/" + keys.PreviewDown.Help().Key + " scroll table",
		keys.Enter.Help().Key + " " + keys.Enter.Help().Desc,
		keys.Quit.Help().Key + " " + keys.Quit.Help().Desc,
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) selected() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m model) doFilter(query string) tea.Cmd {
	db := m.db
	opts := m.searchOpts
	opts.Query = query
	return func() tea.Msg {
		results, err := search.Outputs(db, opts)
		return searchResultMsg{query: query, results: results, err: err}
	}
}

func scheduleFilter(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.selected()
	if !ok || previewCacheKey(r) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(r, m.query, m.layout().previewW)
}
