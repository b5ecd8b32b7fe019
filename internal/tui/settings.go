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
	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
)

type settingsModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	settings   []models.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	dailyGoal          *string
	gpsTrail           *bool
	locationAuthorized *bool
}

func newSettingsModel(ctx context.Context, e *engine.Engine) settingsModel {
	goal := ""
	trail, authorized := false, false
	return settingsModel{
		ctx:                ctx,
		eng:                e,
		dailyGoal:          &goal,
		gpsTrail:           &trail,
		locationAuthorized: &authorized,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []models.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	ctx, e := s.ctx, s.eng
	return func() tea.Msg {
		settings, err := e.Store.GetAllSettings(ctx)
		if err != nil {
			return statusMsg{text: "Error: " + err.Error(), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	goal, err := s.eng.Store.DailyGoal(s.ctx)
	if err != nil {
		return s, errorStatus(err)
	}
	*s.dailyGoal = secsToHours(goal)
	*s.gpsTrail = s.eng.Tracker.GPSTrailEnabled()
	*s.locationAuthorized = s.eng.Feed.Authorized()

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (hours)").
				Description("0 turns the goal off").
				Value(s.dailyGoal).
				Validate(validateGoal),
		).Title("Goal"),
		huh.NewGroup(
			huh.NewConfirm().Title("Location access granted").Value(s.locationAuthorized),
			huh.NewConfirm().Title("Record GPS trail while tracking").Value(s.gpsTrail),
		).Title("Location"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, tea.Batch(s.refresh(), errorStatus(err))
		}
		return s, tea.Batch(s.refresh(), trackerResult(s.eng, "Settings saved"))
	}

	return s, cmd
}

// saveSettings stores the goal and applies the location toggles to the
// running engine. Granting access before enabling the trail lets a running
// entry start recording right away.
func (s settingsModel) saveSettings() error {
	secs, err := hoursToSecs(*s.dailyGoal)
	if err != nil {
		return err
	}
	if err := s.eng.Store.SetDailyGoal(s.ctx, secs); err != nil {
		return err
	}
	s.eng.Feed.Authorize(*s.locationAuthorized)
	s.eng.Tracker.SetGPSTrailEnabled(*s.gpsTrail)
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	rows := []string{titleStyle.Render("Settings"), ""}

	row := func(label, value string) {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value)))
	}

	for _, setting := range s.settings {
		row(setting.Key, formatSettingValue(setting.Key, setting.Value))
	}
	row("location access", onOff(s.eng.Feed.Authorized()))
	row("gps trail", onOff(s.eng.Tracker.GPSTrailEnabled()))
	row("notifications", onOff(s.eng.Scheduler.Granted()))
	if s.eng.Widget != nil {
		row("widget dir", s.eng.Widget.Dir())
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	if k == "daily_goal" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return format.Hours(secs)
		}
	}
	return v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func validateGoal(s string) error {
	_, err := hoursToSecs(s)
	return err
}

func secsToHours(secs int64) string {
	return strconv.FormatFloat(float64(secs)/3600, 'f', -1, 64)
}

func hoursToSecs(s string) (int64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || hours < 0 || hours > 24 {
		return 0, errors.New("enter hours between 0 and 24")
	}
	return int64(hours * 3600), nil
}
