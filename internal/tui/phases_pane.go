package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PhaseStatus is a display row: one phase and its registered systems.
type PhaseStatus struct {
	Label   string
	Once    bool
	Systems []string
}

// PhasesPaneModel lists the resolved phase order with system counts.
type PhasesPaneModel struct {
	phases  []PhaseStatus
	width   int
	height  int
	focused bool
}

// NewPhasesPaneModel creates an empty phases pane.
func NewPhasesPaneModel() PhasesPaneModel {
	return PhasesPaneModel{}
}

// Update handles messages for the phases pane.
func (m PhasesPaneModel) Update(msg tea.Msg) (PhasesPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case FrameMsg:
		m.phases = msg.Phases
	}

	return m, nil
}

// View renders the phases pane.
func (m PhasesPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Phase Order")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	for _, p := range m.phases {
		marker := " "
		if p.Once {
			marker = StyleStatusIdle.Render("1")
		}
		line := fmt.Sprintf("%s %-14s %d systems", marker, p.Label, len(p.Systems))
		b.WriteString(line)
		b.WriteString("\n")
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *PhasesPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *PhasesPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
