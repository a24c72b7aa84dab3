// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/openastro/mountctl/pkg/synscan"
)

// Event log entry
type watchLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// watchModel is the Bubble Tea model for the watch TUI
type watchModel struct {
	session  *mountSession
	connInfo string

	// Latest snapshot and per-axis parameters for degree display
	values   map[synscan.Axis]mount.Values
	params   map[synscan.Axis]mount.Params
	lastPoll time.Time

	stats *mount.Statistics

	errorLog      []watchLogEntry
	maxLogEntries int

	// Command bar
	input       textinput.Model
	inputActive bool

	// UI state
	width    int
	height   int
	quitting bool
}

// Messages
type watchTickMsg time.Time
type watchDataMsg struct {
	values map[synscan.Axis]mount.Values
}
type watchCmdResultMsg struct {
	summary string
	err     error
}

func initialWatchModel(session *mountSession, connInfo string) watchModel {
	ti := textinput.New()
	ti.Placeholder = "track 1 0.00418"
	ti.CharLimit = 64
	ti.Width = 48

	params := make(map[synscan.Axis]mount.Params)
	for _, axis := range synscan.Axes {
		if p, err := session.params(axis); err == nil {
			params[axis] = p
		}
	}

	return watchModel{
		session:       session,
		connInfo:      connInfo,
		values:        make(map[synscan.Axis]mount.Values),
		params:        params,
		stats:         mount.NewStatistics(),
		errorLog:      make([]watchLogEntry, 0),
		maxLogEntries: 100,
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return watchTickCmd()
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return watchTickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watchTickMsg:
		m.stats.CalculateRates()
		return m, watchTickCmd()

	case watchDataMsg:
		m.stats.Update(msg.values)
		if len(msg.values) > 0 {
			m.values = msg.values
			m.lastPoll = time.Now()
		}

	case watchCmdResultMsg:
		if msg.err != nil {
			m.addLogEntry(msg.err.Error(), true)
		} else if msg.summary != "" {
			m.addLogEntry(msg.summary, false)
		}
	}

	return m, nil
}

func (m watchModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputActive {
		switch msg.String() {
		case "esc":
			m.inputActive = false
			m.input.Blur()
			m.input.Reset()
			return m, nil
		case "enter":
			line := m.input.Value()
			m.inputActive = false
			m.input.Blur()
			m.input.Reset()
			return m, runSessionCmd(m.session, line)
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case ":":
		m.inputActive = true
		return m, m.input.Focus()

	case "s":
		return m, runSessionStop(m.session)

	case "r":
		m.stats.Reset()
		m.addLogEntry("statistics reset", false)
	}

	return m, nil
}

// runSessionCmd executes a command-bar line off the UI goroutine.
func runSessionCmd(session *mountSession, line string) tea.Cmd {
	return func() tea.Msg {
		summary, err := session.execute(line)
		return watchCmdResultMsg{summary: summary, err: err}
	}
}

func runSessionStop(session *mountSession) tea.Cmd {
	return func() tea.Msg {
		if err := session.stopAll(); err != nil {
			return watchCmdResultMsg{err: err}
		}
		return watchCmdResultMsg{summary: "both axes stopped"}
	}
}

func (m *watchModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, watchLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("MOUNTCTL - WATCH"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | ':' command, 's' stop all, 'r' reset stats, 'q' quit", m.connInfo)))
	s.WriteString("\n\n")

	// Staleness warning
	if m.lastPoll.IsZero() {
		s.WriteString(warningStyle.Render("⏳ Waiting for the first sample..."))
		s.WriteString("\n\n")
	} else if age := time.Since(m.lastPoll); age > 3*time.Second {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ No samples for %.0f seconds", age.Seconds())))
		s.WriteString("\n\n")
	}

	// Axis panels side by side
	panels := make([]string, 0, len(synscan.Axes))
	for _, axis := range synscan.Axes {
		panels = append(panels, boxStyle.Render(m.axisPanel(axis, labelStyle, valueStyle, errorStyle)))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	s.WriteString("\n\n")

	// Poll statistics
	var samplePercent float64
	if m.stats.Polls > 0 {
		samplePercent = float64(m.stats.Samples) * 100.0 / float64(m.stats.Polls)
	}
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Polls:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Polls)),
		labelStyle.Render("Samples:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.Samples, samplePercent)),
		labelStyle.Render("Missed:"), func() string {
			if m.stats.MissedSamples > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.MissedSamples))
			}
			return valueStyle.Render("0")
		}(),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Poll Rate:"), valueStyle.Render(fmt.Sprintf("%.1f polls/sec", m.stats.PollRate)),
		labelStyle.Render("Motion Edges:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Transitions)),
	))
	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 18
	if logHeight < 4 {
		logHeight = 4
	}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))
	s.WriteString("\n")

	// Command bar
	if m.inputActive {
		s.WriteString(labelStyle.Render("> "))
		s.WriteString(m.input.View())
	} else {
		s.WriteString(headerStyle.Render("commands: track A R | goto A D [R] | stop [A] | sync A D | init A | raw FRAME"))
	}
	s.WriteString("\n")

	return s.String()
}

// axisPanel renders one axis box.
func (m watchModel) axisPanel(axis synscan.Axis, labelStyle, valueStyle, errorStyle lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("Axis %d", axis)))
	b.WriteString("\n")

	v, ok := m.values[axis]
	if !ok {
		b.WriteString(valueStyle.Render("(no data)"))
		return b.String()
	}

	p, haveParams := m.params[axis]
	if haveParams {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Position:"),
			valueStyle.Render(fmt.Sprintf("%9.4f deg (%d)", p.CountsToDegrees(float64(v.Position)), v.Position))))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Target:  "),
			valueStyle.Render(fmt.Sprintf("%9.4f deg (%d)", p.CountsToDegrees(float64(v.GotoTarget)), v.GotoTarget))))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Position:"),
			valueStyle.Render(fmt.Sprintf("%d counts", v.Position))))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Target:  "),
			valueStyle.Render(fmt.Sprintf("%d counts", v.GotoTarget))))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Period:  "),
		valueStyle.Render(fmt.Sprintf("%d", v.StepPeriod))))

	statusStyle := valueStyle
	if v.Status.Blocked || !v.Status.InitDone {
		statusStyle = errorStyle
	}
	b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Status:  "),
		statusStyle.Render(v.Status.String())))
	return b.String()
}
