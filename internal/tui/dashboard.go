package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
)

const recentLimit = 5

type dashboardModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	todayTotal   int64
	goal         int64
	streak       int
	todaySummary []models.DailySummary
	recent       []*models.TimeEntry
	taskNames    map[string]string
	tasks        []*models.Task

	// Task picker state
	picking      bool
	pickerCursor int

	goalBar progress.Model
}

func newDashboardModel(ctx context.Context, e *engine.Engine) dashboardModel {
	return dashboardModel{
		ctx:     ctx,
		eng:     e,
		goalBar: progress.New(progress.WithSolidFill(string(colorSuccess)), progress.WithoutPercentage()),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.goalBar.Width = max(w/3, 10)
}

type dashboardDataMsg struct {
	todayTotal   int64
	goal         int64
	streak       int
	todaySummary []models.DailySummary
	recent       []*models.TimeEntry
	taskNames    map[string]string
	tasks        []*models.Task
}

func (d dashboardModel) loadData() tea.Cmd {
	ctx, e := d.ctx, d.eng
	return func() tea.Msg {
		now := e.Clock.Now()
		msg := dashboardDataMsg{taskNames: make(map[string]string)}

		var err error
		if msg.todayTotal, err = e.Store.GetDayTotal(ctx, now); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		if msg.goal, err = e.Store.DailyGoal(ctx); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		if msg.streak, err = e.Store.GoalStreak(ctx, now, msg.goal); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		from, to := dayBounds(now)
		if msg.todaySummary, err = e.Store.GetDailySummary(ctx, from, to); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		if msg.recent, err = e.Store.ListEntries(ctx, models.EntryFilter{Limit: recentLimit}); err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}

		all, err := e.Store.ListTasks(ctx, true)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		for _, t := range all {
			msg.taskNames[t.ID] = t.Name
			if !t.Archived {
				msg.tasks = append(msg.tasks, t)
			}
		}
		// Favorites first, otherwise keep the stored order.
		sort.SliceStable(msg.tasks, func(i, j int) bool {
			return msg.tasks[i].Favorite && !msg.tasks[j].Favorite
		})
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.todayTotal = msg.todayTotal
		d.goal = msg.goal
		d.streak = msg.streak
		d.todaySummary = msg.todaySummary
		d.recent = msg.recent
		d.taskNames = msg.taskNames
		d.tasks = msg.tasks
		if d.pickerCursor >= len(d.tasks) {
			d.pickerCursor = max(0, len(d.tasks)-1)
		}
		return d, nil

	case tea.KeyMsg:
		if d.picking {
			return d.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			if len(d.tasks) == 0 {
				return d, func() tea.Msg {
					return statusMsg{text: "No tasks yet. Press 2 to go to Tasks and create one.", isError: true}
				}
			}
			if len(d.tasks) == 1 {
				return d.startTask(d.tasks[0])
			}
			d.picking = true
			d.pickerCursor = 0
			return d, nil

		case key.Matches(msg, keys.Stop):
			return d.stopTask()
		}
	}
	return d, nil
}

func (d dashboardModel) updatePicker(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.pickerCursor > 0 {
			d.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.pickerCursor < len(d.tasks)-1 {
			d.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		d.picking = false
		if d.pickerCursor < len(d.tasks) {
			return d.startTask(d.tasks[d.pickerCursor])
		}
	case key.Matches(msg, keys.Back):
		d.picking = false
	}
	return d, nil
}

// startTask starts t, switching away from whatever runs.
func (d dashboardModel) startTask(t *models.Task) (dashboardModel, tea.Cmd) {
	if d.eng.Tracker.IsTracking(t.ID) {
		return d, func() tea.Msg { return statusMsg{text: "Already tracking " + t.Name} }
	}
	if d.eng.Tracker.ActiveEntry() != nil {
		d.eng.Tracker.SwitchTask(d.ctx, t)
		return d, trackerResult(d.eng, "Switched to "+t.Name)
	}
	d.eng.Tracker.StartTask(d.ctx, t)
	return d, trackerResult(d.eng, "Tracking "+t.Name)
}

func (d dashboardModel) stopTask() (dashboardModel, tea.Cmd) {
	if d.eng.Tracker.ActiveEntry() == nil {
		return d, nil
	}
	d.eng.Tracker.StopCurrentEntry(d.ctx)
	return d, trackerResult(d.eng, "Tracking stopped")
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	// Timer panel
	timerPanel := d.renderTimerPanel(contentWidth)

	// Today and goal panel
	summaryPanel := d.renderSummaryPanel(contentWidth)

	// Recent entries or task picker
	var bottomPanel string
	if d.picking {
		bottomPanel = d.renderTaskPicker(contentWidth)
	} else {
		bottomPanel = d.renderRecentPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	entry := d.eng.Tracker.ActiveEntry()
	if entry == nil {
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerStyle.Width(w-6).Render("00:00:00"),
			mutedStyle.Render("■  STOPPED"),
			mutedStyle.Render("Press s to start tracking"),
		)
		return panelStyle.Width(w).Render(content)
	}

	lines := []string{
		timerRunningStyle.Width(w - 6).Render(format.HMS(entry.Duration(d.eng.Clock.Now()))),
		successStyle.Render("●  RUNNING"),
	}

	if t := d.eng.Tracker.ActiveTask(); t != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
		lines = append(lines, dot+" "+highlightStyle.Render(t.Name))
	} else {
		lines = append(lines, warningStyle.Render("(deleted task)"))
	}

	if st := d.eng.Timer.Snapshot(); st.Phase.IsActive() {
		line := phaseStyle(st.Phase.Kind).Render(fmt.Sprintf("%s  %s", st.Phase.Kind, format.Clock(st.Remaining)))
		if st.Waiting {
			line = warningStyle.Render(fmt.Sprintf("%s  waiting", st.Phase.Kind))
		}
		lines = append(lines, line)
	}

	var extras []string
	if d.eng.Tracker.GPSTrailEnabled() && d.eng.Feed.Running() {
		extras = append(extras, "GPS trail")
	}
	if d.eng.Geofences.ActivePlaceID() != "" {
		extras = append(extras, "started by geofence")
	}
	if len(extras) > 0 {
		lines = append(lines, mutedStyle.Render(strings.Join(extras, " · ")))
	}

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	total := d.todayTotal
	if entry := d.eng.Tracker.ActiveEntry(); entry != nil {
		total += int64(entry.Duration(d.eng.Clock.Now()).Seconds())
	}

	title := titleStyle.Render("Today")
	header := fmt.Sprintf("%s  %s", title, highlightStyle.Render(format.Seconds(total)))

	var rows []string
	rows = append(rows, header)

	if d.goal > 0 {
		pct := float64(total) / float64(d.goal)
		goalLine := fmt.Sprintf("  %s %s of %s",
			d.goalBar.ViewAs(min(pct, 1)),
			goalStyle(pct).Render(fmt.Sprintf("%d%%", int(pct*100))),
			format.Hours(d.goal),
		)
		if d.streak > 0 {
			goalLine += mutedStyle.Render(fmt.Sprintf("  streak %d days", d.streak))
		}
		rows = append(rows, goalLine)
	}

	for _, o := range d.eng.Tracker.OrphanedEntries() {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  ⚠ entry from %s was never stopped", o.StartTime.Local().Format("Jan 02 15:04"))))
	}

	if len(d.todaySummary) == 0 {
		rows = append(rows, mutedStyle.Render("No finished entries today"))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for _, s := range d.todaySummary {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.TaskColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-20s %s  (%d entries)",
			colorDot,
			s.TaskName,
			format.Seconds(s.TotalSeconds),
			s.EntryCount,
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	now := d.eng.Clock.Now()
	var rows []string
	rows = append(rows, title)
	for _, e := range d.recent {
		name, ok := d.taskNames[e.TaskID]
		if !ok {
			name = "(deleted task)"
		}
		dur := format.Duration(e.Duration(now))
		status := "✓"
		if e.Running() {
			status = "●"
			dur = "running"
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-16s %s", status, e.StartTime.Local().Format("15:04"), name, dur))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTaskPicker(w int) string {
	title := titleStyle.Render("Select Task")

	var rows []string
	rows = append(rows, title)
	for i, t := range d.tasks {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == d.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := t.Name
		if t.Favorite {
			name += " ★"
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, colorDot, name)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: start  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
