package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/notify"
	"github.com/sadopc/tracklet/internal/pomodoro"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTasks
	viewReports
	viewPomodoro
	viewSettings
)

var viewNames = []string{"Dashboard", "Tasks", "Reports", "Pomodoro", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// trackingChangedMsg is sent after the running entry started or stopped.
type trackingChangedMsg struct {
	text string
}

type notificationMsg notify.Notification

type completionMsg pomodoro.Completion

type exportDoneMsg struct {
	path  string
	count int
}

// --- Helpers ---

func errorStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: "Error: " + err.Error(), isError: true}
	}
}

// trackerResult reports the outcome of a tracker operation. A non-fatal
// failure left on the tracker takes precedence over text.
func trackerResult(e *engine.Engine, text string) tea.Cmd {
	if err := e.Tracker.LastError(); err != nil {
		e.Tracker.ClearLastError()
		return errorStatus(err)
	}
	return func() tea.Msg { return trackingChangedMsg{text: text} }
}

func listenNotifications(ch <-chan notify.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func listenCompletions(ch <-chan pomodoro.Completion) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return completionMsg(c)
	}
}

// dayBounds returns the UTC day containing t as [start, end).
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
