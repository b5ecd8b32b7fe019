package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tracklet/internal/pomodoro"
)

var (
	colorPrimary   = lipgloss.Color("#5E81AC")
	colorAccent    = lipgloss.Color("#D08770")
	colorMuted     = lipgloss.Color("#6B7089")
	colorSuccess   = lipgloss.Color("#A3BE8C")
	colorWarning   = lipgloss.Color("#EBCB8B")
	colorError     = lipgloss.Color("#BF616A")
	colorFg        = lipgloss.Color("#D8DEE9")
	colorSubtle    = lipgloss.Color("#3B4252")
	colorHighlight = lipgloss.Color("#88C0D0")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func panel(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
}

var (
	titleStyle     = fg(colorFg).Bold(true)
	accentStyle    = fg(colorAccent)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	activeTabStyle = fg(colorPrimary).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle       = panel(colorSubtle)
	activePanelStyle = panel(colorPrimary)

	// Big clocks on the dashboard.
	timerStyle        = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = fg(colorSuccess).Bold(true).Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
)

// phaseStyle colors a Pomodoro phase: work in accent, breaks in calmer tones.
func phaseStyle(k pomodoro.PhaseKind) lipgloss.Style {
	switch k {
	case pomodoro.Working:
		return accentStyle.Bold(true)
	case pomodoro.ShortBreak:
		return successStyle.Bold(true)
	case pomodoro.LongBreak:
		return highlightStyle.Bold(true)
	}
	return mutedStyle
}

// goalStyle colors progress toward the daily goal, green once it is met.
func goalStyle(fraction float64) lipgloss.Style {
	switch {
	case fraction >= 1:
		return successStyle
	case fraction >= 0.5:
		return warningStyle
	}
	return errorStyle
}
