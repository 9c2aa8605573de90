package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ampview/ampview/internal/logreader"
	"github.com/ampview/ampview/internal/types"
)

const pollInterval = 2 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	tsStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

type tickMsg time.Time

// Model tails one event log: it owns a (byte position, line count) cursor
// and polls for newly appended lines on a fixed interval.
type Model struct {
	sessionID string
	path      string

	items     []types.EventItem
	pos       int64
	lineCount int

	width  int
	height int
}

// NewModel creates a tail model with its cursor at the current end of the
// file, so only events appended after launch are shown.
func NewModel(sessionID, path string) Model {
	var pos int64
	if fi, err := os.Stat(path); err == nil {
		pos = fi.Size()
	}

	return Model{
		sessionID: sessionID,
		path:      path,
		pos:       pos,
		lineCount: logreader.CountLines(path),
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		events, pos, count := logreader.Tail(m.path, m.pos, m.lineCount)
		m.pos, m.lineCount = pos, count
		m.items = append(m.items, events...)
		// Keep a bounded scrollback.
		if max := 1000; len(m.items) > max {
			m.items = m.items[len(m.items)-max:]
		}
		return m, tick()
	}

	return m, nil
}

func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}
	height := m.height
	if height == 0 {
		height = 24
	}

	title := titleStyle.Render(fmt.Sprintf("tail %s", m.sessionID))
	help := helpStyle.Render("q quit · polling every 2s")

	visible := height - 3
	if visible < 1 {
		visible = 1
	}
	items := m.items
	if len(items) > visible {
		items = items[len(items)-visible:]
	}

	body := ""
	if len(m.items) == 0 {
		body = helpStyle.Render("waiting for new events...") + "\n"
	}
	for _, item := range items {
		body += renderItem(item, width) + "\n"
	}

	return fmt.Sprintf("%s\n%s%s", title, body, help)
}

func renderItem(item types.EventItem, width int) string {
	ts := ""
	if s, ok := item.TS.(string); ok && len(s) >= 19 {
		ts = s[11:19] // HH:MM:SS out of an ISO timestamp
	}

	kind := kindStyle
	switch item.Lvl {
	case "warning", "warn":
		kind = warnStyle
	case "error":
		kind = errStyle
	}

	// Truncate before styling so ANSI escapes don't count against width.
	preview := runewidth.Truncate(item.Preview, 80, "…")

	line := fmt.Sprintf("%s %s %s",
		tsStyle.Render(ts),
		kind.Render(item.Event),
		previewStyle.Render(preview))

	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

// Run starts the tail TUI for one session's event log.
func Run(sessionID, path string) error {
	p := tea.NewProgram(NewModel(sessionID, path), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tail view error: %w", err)
	}
	return nil
}
