package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/pomodoro"
)

// pomodoroModel renders the engine's timer. It holds no phase state of its own.
type pomodoroModel struct {
	eng    *engine.Engine
	width  int
	height int

	bar progress.Model
}

func newPomodoroModel(e *engine.Engine) pomodoroModel {
	return pomodoroModel{
		eng: e,
		bar: progress.New(progress.WithDefaultGradient()),
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.bar.Width = max(w-16, 10)
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	timer := p.eng.Timer
	st := timer.Snapshot()

	switch {
	case key.Matches(km, keys.Start):
		if st.Phase.IsActive() {
			return p, nil
		}
		t := p.eng.Tracker.ActiveTask()
		if !t.PomodoroEnabled() {
			return p, func() tea.Msg {
				return statusMsg{text: "Track a task with a Pomodoro cycle to start one", isError: true}
			}
		}
		timer.Start(*t.Pomodoro)
		return p, statusCmd("Pomodoro started")

	case key.Matches(km, keys.Skip):
		switch {
		case st.Waiting:
			timer.Resume()
			return p, statusCmd(st.Phase.Kind.String() + " started")
		case st.Phase.IsActive():
			timer.Skip()
			return p, statusCmd(st.Phase.Kind.String() + " skipped")
		}

	case key.Matches(km, keys.Reset):
		if st.Phase.IsActive() {
			timer.Reset()
			return p, statusCmd("Pomodoro cycle reset")
		}

	case key.Matches(km, keys.Stop):
		if st.Phase.IsActive() {
			timer.Stop()
			return p, statusCmd("Pomodoro stopped")
		}
	}
	return p, nil
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	st := p.eng.Timer.Snapshot()

	title := titleStyle.Render("Pomodoro Timer")

	// Big countdown display
	var timeDisplay, phaseLabel, indicator string
	switch {
	case !st.Phase.IsActive():
		timeDisplay = timerStyle.Width(w - 6).Render("--:--")
		phaseLabel = mutedStyle.Render("Ready to start")
		if t := p.eng.Tracker.ActiveTask(); t.PomodoroEnabled() {
			indicator = mutedStyle.Render("Press s to begin a cycle for " + t.Name)
		} else {
			indicator = mutedStyle.Render("Tasks with a Pomodoro cycle start one when tracked")
		}
	default:
		style := phaseStyle(st.Phase.Kind)
		timeDisplay = style.Width(w - 6).Align(lipgloss.Center).Render(format.Clock(st.Remaining))
		label := st.Phase.Kind.String()
		if st.Waiting {
			label += " (waiting)"
		}
		phaseLabel = style.Render(label)
		indicator = lipgloss.JoinVertical(lipgloss.Center,
			p.bar.ViewAs(st.Progress),
			p.renderSessions(st.Phase),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		"",
		indicator,
	)

	// Controls
	var controls string
	switch {
	case !st.Phase.IsActive():
		controls = mutedStyle.Render("s: start")
	case st.Waiting:
		controls = mutedStyle.Render("space: start phase  r: reset  x: stop")
	default:
		controls = mutedStyle.Render("space: skip  r: reset  x: stop")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

// renderSessions shows one dot per work session in the cycle.
func (p pomodoroModel) renderSessions(ph pomodoro.Phase) string {
	total := max(p.eng.Timer.Settings().SessionsBeforeLongBreak, 1)

	// Sessions finished before the current phase.
	done := 0
	switch ph.Kind {
	case pomodoro.Working:
		done = ph.Session - 1
	case pomodoro.ShortBreak:
		done = ph.Session
	case pomodoro.LongBreak:
		done = total
	}

	var parts []string
	for i := 0; i < total; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && ph.Kind == pomodoro.Working:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", done, total))
	return strings.Join(parts, " ") + counter
}

// completionText describes a finished phase for the status line.
func completionText(c completionMsg) string {
	title, _ := pomodoro.CompletionMessage(c.Finished)
	if c.Waiting {
		return fmt.Sprintf("%s. Press space on the Pomodoro tab to start %s. \a", title, c.Next.Kind)
	}
	return fmt.Sprintf("%s. %s started. \a", title, c.Next.Kind)
}
