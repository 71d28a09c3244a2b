// Package tui is the Bubble Tea front end for the demo: a particle field
// pane, the resolved phase order, and a failure log. The scheduler runs on
// its own goroutine; the driver pushes FrameMsg and FailureMsg values into
// the program.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/phasor/internal/config"
	"github.com/aristath/phasor/internal/demo"
)

// FrameMsg carries one frame's worth of display state.
type FrameMsg struct {
	Snap   demo.Snapshot
	Phases []PhaseStatus
}

// FailureMsg carries one reported runtime failure.
type FailureMsg struct {
	Time   time.Time
	System string
	Phase  string
	Stage  string
	Error  string
}

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneField PaneID = iota
	PanePhases
	PaneLog
)

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	fieldPane     FieldPaneModel
	phasesPane    PhasesPaneModel
	logPane       LogPaneModel
	settingsPane  SettingsPaneModel
	focusedPane   PaneID
	onTogglePause func() bool
	width         int
	height        int
	quitting      bool
	showSettings  bool
}

// New creates a new TUI model. onTogglePause flips the simulation's pause
// flag and reports the new state.
func New(cfg *config.Config, globalPath, projectPath string, fieldW, fieldH float64, onTogglePause func() bool) Model {
	return Model{
		fieldPane:     NewFieldPaneModel(fieldW, fieldH),
		phasesPane:    NewPhasesPaneModel(),
		logPane:       NewLogPaneModel(),
		settingsPane:  NewSettingsPaneModel(cfg, globalPath, projectPath),
		focusedPane:   PaneField,
		onTogglePause: onTogglePause,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If settings panel is open, route all keys to it (modal behavior)
		if m.showSettings {
			switch msg.String() {
			case KeySettings, "esc":
				m.showSettings = false
				m.settingsPane.SetVisible(false)
			default:
				var cmd tea.Cmd
				m.settingsPane, cmd = m.settingsPane.Update(msg)
				cmds = append(cmds, cmd)

				// The pane closes itself after a save
				if !m.settingsPane.IsVisible() {
					m.showSettings = false
				}
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyPause:
			if m.onTogglePause != nil {
				m.onTogglePause()
			}

		case KeySettings:
			m.showSettings = true
			m.settingsPane.SetVisible(true)
			cmds = append(cmds, m.settingsPane.Init())

		case KeyTab:
			m.focusedPane = (m.focusedPane + 1) % 3
			m.updateFocusStates()

		case KeyShiftTab:
			m.focusedPane = (m.focusedPane + 2) % 3
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneField
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PanePhases
			m.updateFocusStates()

		case KeyPane3:
			m.focusedPane = PaneLog
			m.updateFocusStates()

		default:
			// Delegate to focused pane
			switch m.focusedPane {
			case PaneLog:
				var cmd tea.Cmd
				m.logPane, cmd = m.logPane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.settingsPane.SetSize(msg.Width, msg.Height)

	case FrameMsg:
		var cmd tea.Cmd
		m.fieldPane, cmd = m.fieldPane.Update(msg)
		cmds = append(cmds, cmd)
		m.phasesPane, cmd = m.phasesPane.Update(msg)
		cmds = append(cmds, cmd)

	case FailureMsg:
		var cmd tea.Cmd
		m.logPane, cmd = m.logPane.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.showSettings {
		return m.settingsPane.View()
	}

	leftPane := m.fieldPane.View()
	rightTop := m.phasesPane.View()
	rightBottom := m.logPane.View()

	rightPane := lipgloss.JoinVertical(lipgloss.Left, rightTop, rightBottom)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, HelpView())
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 60) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // reserve a line for the help bar
	rightTopHeight := (availableHeight * 55) / 100
	rightBottomHeight := availableHeight - rightTopHeight

	m.fieldPane.SetSize(leftWidth, availableHeight)
	m.phasesPane.SetSize(rightWidth, rightTopHeight)
	m.logPane.SetSize(rightWidth, rightBottomHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.fieldPane.SetFocused(m.focusedPane == PaneField)
	m.phasesPane.SetFocused(m.focusedPane == PanePhases)
	m.logPane.SetFocused(m.focusedPane == PaneLog)
}
