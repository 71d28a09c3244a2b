package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/phasor/internal/demo"
)

// FieldPaneModel renders the particle field and the frame counters.
type FieldPaneModel struct {
	snap    demo.Snapshot
	fieldW  float64
	fieldH  float64
	width   int
	height  int
	focused bool
}

// NewFieldPaneModel creates a field pane for a world of the given size.
func NewFieldPaneModel(fieldW, fieldH float64) FieldPaneModel {
	return FieldPaneModel{fieldW: fieldW, fieldH: fieldH}
}

// Update handles messages for the field pane.
func (m FieldPaneModel) Update(msg tea.Msg) (FieldPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case FrameMsg:
		m.snap = msg.Snap
	}

	return m, nil
}

// View renders the field pane.
func (m FieldPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	status := StyleStatusRunning.Render("running")
	if m.snap.Paused {
		status = StyleStatusPaused.Render("paused")
	}
	title := StyleTitle.Render("Particles")
	b.WriteString(fmt.Sprintf("%s %s\n", title, status))
	b.WriteString(fmt.Sprintf("frame %d  alive %d  spawned %d  expired %d  delta %s\n\n",
		m.snap.Frame, m.snap.Alive, m.snap.Spawned, m.snap.Expired, m.snap.Delta))

	b.WriteString(m.renderField())

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// renderField projects particle positions onto a character grid.
func (m FieldPaneModel) renderField() string {
	gridW := min(m.width-4, 76)
	gridH := min(m.height-7, 20)
	if gridW < 4 || gridH < 2 {
		return ""
	}

	grid := make([][]byte, gridH)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", gridW))
	}
	for _, p := range m.snap.Particles {
		x := int(p.X / m.fieldW * float64(gridW))
		y := int(p.Y / m.fieldH * float64(gridH))
		if x < 0 || x >= gridW || y < 0 || y >= gridH {
			continue
		}
		grid[y][x] = '*'
	}

	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteString("\n")
	}
	return b.String()
}

// SetSize updates the pane dimensions.
func (m *FieldPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *FieldPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
