package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/models"
)

var taskColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

type taskFormType int

const (
	formNewTask taskFormType = iota
	formEditTask
	formPomodoro
)

type tasksModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	tasks        []*models.Task
	cursor       int
	showArchived bool

	formActive bool
	form       *huh.Form
	formType   taskFormType
	editingID  string

	// Form field pointers (survive value copies)
	formName       *string
	formColor      *string
	formEnabled    *bool
	formWork       *string
	formShort      *string
	formLong       *string
	formSessions   *string
	formAutoBreaks *bool
	formAutoWork   *bool
}

func newTasksModel(ctx context.Context, e *engine.Engine) tasksModel {
	name, color := "", taskColors[0]
	work, short, long, sessions := "", "", "", ""
	enabled, autoBreaks, autoWork := false, false, false
	return tasksModel{
		ctx:            ctx,
		eng:            e,
		formName:       &name,
		formColor:      &color,
		formEnabled:    &enabled,
		formWork:       &work,
		formShort:      &short,
		formLong:       &long,
		formSessions:   &sessions,
		formAutoBreaks: &autoBreaks,
		formAutoWork:   &autoWork,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	tasks []*models.Task
}

func (m tasksModel) refresh() tea.Cmd {
	ctx, e, archived := m.ctx, m.eng, m.showArchived
	return func() tea.Msg {
		tasks, err := e.Store.ListTasks(ctx, archived)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return tasksDataMsg{tasks: tasks}
	}
}

// favoritesChanged republishes favorites to the widget and reloads the list.
func (m tasksModel) favoritesChanged() tea.Cmd {
	if _, err := m.eng.Tracker.PublishFavorites(m.ctx); err != nil {
		return tea.Batch(m.refresh(), errorStatus(err))
	}
	return m.refresh()
}

func (m tasksModel) selected() *models.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm(nil)
	case key.Matches(msg, keys.Enter):
		if t := m.selected(); t != nil {
			return m.showTaskForm(t)
		}
	case key.Matches(msg, keys.Pomodoro):
		if t := m.selected(); t != nil {
			return m.showPomodoroForm(t)
		}
	case key.Matches(msg, keys.Favorite):
		if t := m.selected(); t != nil {
			if err := m.eng.Store.SetFavorite(m.ctx, t.ID, !t.Favorite); err != nil {
				return m, errorStatus(err)
			}
			return m, m.favoritesChanged()
		}
	case key.Matches(msg, keys.Delete):
		if t := m.selected(); t != nil {
			if err := m.eng.Store.ArchiveTask(m.ctx, t.ID, !t.Archived); err != nil {
				return m, errorStatus(err)
			}
			return m, m.favoritesChanged()
		}
	case key.Matches(msg, keys.Remove):
		if t := m.selected(); t != nil {
			return m.removeTask(t)
		}
	case key.Matches(msg, keys.Archived):
		m.showArchived = !m.showArchived
		return m, m.refresh()
	}
	return m, nil
}

// removeTask deletes t. A running entry for t is stopped first; its
// recorded entries stay without a task.
func (m tasksModel) removeTask(t *models.Task) (tasksModel, tea.Cmd) {
	var cmds []tea.Cmd
	if m.eng.Tracker.IsTracking(t.ID) {
		m.eng.Tracker.StopCurrentEntry(m.ctx)
		cmds = append(cmds, trackerResult(m.eng, "Tracking stopped"))
	}
	if err := m.eng.Store.DeleteTask(m.ctx, t.ID); err != nil {
		return m, errorStatus(err)
	}
	cmds = append(cmds, m.favoritesChanged(), func() tea.Msg {
		return statusMsg{text: "Deleted " + t.Name}
	})
	return m, tea.Sequence(cmds...)
}

// showTaskForm opens the new-task form, or the edit form when t is set.
func (m tasksModel) showTaskForm(t *models.Task) (tasksModel, tea.Cmd) {
	*m.formName = ""
	*m.formColor = taskColors[0]
	m.formType = formNewTask
	if t != nil {
		*m.formName = t.Name
		*m.formColor = t.Color
		m.formType = formEditTask
		m.editingID = t.ID
	}

	colorOptions := make([]huh.Option[string], len(taskColors))
	for i, c := range taskColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Name").Value(m.formName).Validate(requireName),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(m.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showPomodoroForm(t *models.Task) (tasksModel, tea.Cmd) {
	s := models.DefaultPomodoroSettings()
	if t.Pomodoro != nil {
		s = *t.Pomodoro
	}
	*m.formEnabled = s.Enabled
	*m.formWork = strconv.Itoa(s.WorkMinutes)
	*m.formShort = strconv.Itoa(s.ShortBreakMinutes)
	*m.formLong = strconv.Itoa(s.LongBreakMinutes)
	*m.formSessions = strconv.Itoa(s.SessionsBeforeLongBreak)
	*m.formAutoBreaks = s.AutoStartBreaks
	*m.formAutoWork = s.AutoStartWork
	m.formType = formPomodoro
	m.editingID = t.ID

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Pomodoro for "+t.Name).Value(m.formEnabled),
			huh.NewInput().Title("Work (min)").Value(m.formWork).Validate(positiveInt),
			huh.NewInput().Title("Short break (min)").Value(m.formShort).Validate(positiveInt),
			huh.NewInput().Title("Long break (min)").Value(m.formLong).Validate(positiveInt),
			huh.NewInput().Title("Sessions before long break").Value(m.formSessions).Validate(positiveInt),
		).Title("Cycle"),
		huh.NewGroup(
			huh.NewConfirm().Title("Start breaks automatically").Value(m.formAutoBreaks),
			huh.NewConfirm().Title("Start work automatically").Value(m.formAutoWork),
		).Title("Automation"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		if err := m.saveForm(); err != nil {
			return m, tea.Batch(m.refresh(), errorStatus(err))
		}
		return m, m.favoritesChanged()
	}

	return m, cmd
}

func (m tasksModel) saveForm() error {
	name := strings.TrimSpace(*m.formName)
	switch m.formType {
	case formNewTask:
		_, err := m.eng.Store.CreateTask(m.ctx, name, *m.formColor)
		return err
	case formEditTask:
		return m.eng.Store.UpdateTask(m.ctx, m.editingID, name, *m.formColor)
	case formPomodoro:
		if !*m.formEnabled {
			return m.eng.Store.ClearPomodoroSettings(m.ctx, m.editingID)
		}
		s, err := m.pomodoroSettings()
		if err != nil {
			return err
		}
		return m.eng.Store.SavePomodoroSettings(m.ctx, m.editingID, s)
	}
	return nil
}

func (m tasksModel) pomodoroSettings() (models.PomodoroSettings, error) {
	var s models.PomodoroSettings
	fields := []struct {
		in  string
		out *int
	}{
		{*m.formWork, &s.WorkMinutes},
		{*m.formShort, &s.ShortBreakMinutes},
		{*m.formLong, &s.LongBreakMinutes},
		{*m.formSessions, &s.SessionsBeforeLongBreak},
	}
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f.in))
		if err != nil {
			return s, fmt.Errorf("%q is not a number", f.in)
		}
		*f.out = n
	}
	s.Enabled = true
	s.AutoStartBreaks = *m.formAutoBreaks
	s.AutoStartWork = *m.formAutoWork
	return s, nil
}

func requireName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func (m tasksModel) view() string {
	if m.formActive && m.form != nil {
		var title string
		switch m.formType {
		case formNewTask:
			title = "New Task"
		case formEditTask:
			title = "Edit Task"
		case formPomodoro:
			title = "Pomodoro"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}
	return m.renderList()
}

func (m tasksModel) renderList() string {
	w := m.width - 4
	title := titleStyle.Render("Tasks")
	if m.showArchived {
		title += mutedStyle.Render("  (including archived)")
	}

	if len(m.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-4s %-16s", "", "Name", "Fav", "Pomodoro")))

	for i, t := range m.tasks {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		fav := ""
		if t.Favorite {
			fav = "★"
		}
		pomo := ""
		if t.PomodoroEnabled() {
			s := t.Pomodoro
			pomo = fmt.Sprintf("%d/%d/%d x%d", s.WorkMinutes, s.ShortBreakMinutes, s.LongBreakMinutes, s.SessionsBeforeLongBreak)
		}
		name := t.Name
		if t.Archived {
			name += " (archived)"
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %-4s %-16s", cursor, colorDot, name, fav, pomo))
		if m.eng.Tracker.IsTracking(t.ID) {
			row += successStyle.Render(" ● tracking")
		}
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: edit  p: pomodoro  f: favorite  d: archive  D: delete  a: archived"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
