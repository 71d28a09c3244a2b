package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines bounds the kept history so a noisy system cannot grow the
// model without limit.
const maxLogLines = 500

// LogPaneModel shows failure reports in a scrollable viewport.
type LogPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewLogPaneModel creates a new log pane.
func NewLogPaneModel() LogPaneModel {
	vp := viewport.New(0, 0)
	return LogPaneModel{viewport: vp}
}

// Update handles messages for the log pane.
func (m LogPaneModel) Update(msg tea.Msg) (LogPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}
		m.viewport, cmd = m.viewport.Update(msg)

	case FailureMsg:
		line := fmt.Sprintf("%s %s %s/%s: %s",
			msg.Time.Format(time.TimeOnly),
			StyleStatusFailed.Render(msg.Stage),
			msg.Phase, msg.System, msg.Error)
		m.lines = append(m.lines, line)
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		atBottom := m.viewport.AtBottom()
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if atBottom {
			m.viewport.GotoBottom()
		}
	}

	return m, cmd
}

// View renders the log pane.
func (m LogPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	title := StyleTitle.Render("Failures")
	body := m.viewport.View()
	if len(m.lines) == 0 {
		body = StyleStatusIdle.Render("no failures reported")
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(title + "\n" + body)
}

// SetSize updates the pane dimensions.
func (m *LogPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *LogPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func (m *LogPaneModel) resizeViewport() {
	m.viewport.Width = max(0, m.width-4)
	m.viewport.Height = max(0, m.height-4)
}
