package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tracklet/internal/clock"
	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/pomodoro"
	"github.com/sadopc/tracklet/internal/tracker"
	"github.com/sadopc/tracklet/internal/widget"
)

// Monday, so weekly reports start on the same day.
var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*engine.Engine, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	e, err := engine.New(engine.Config{
		DBPath:        ":memory:",
		WidgetDir:     t.TempDir(),
		Notifications: true,
		Cues:          4,
		Clock:         fake,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e, fake
}

func createTask(t *testing.T, e *engine.Engine, name string) *models.Task {
	t.Helper()
	task, err := e.Store.CreateTask(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create task %s: %v", name, err)
	}
	return task
}

// createPomodoroTask creates a task with the default cycle enabled and
// workMinutes long focus sessions.
func createPomodoroTask(t *testing.T, e *engine.Engine, name string, workMinutes int) *models.Task {
	t.Helper()
	ctx := context.Background()
	task := createTask(t, e, name)
	s := models.DefaultPomodoroSettings()
	s.Enabled = true
	s.WorkMinutes = workMinutes
	if err := e.Store.SavePomodoroSettings(ctx, task.ID, s); err != nil {
		t.Fatal(err)
	}
	task, err := e.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	return task
}

// trackFor records a finished entry of d for task.
func trackFor(t *testing.T, e *engine.Engine, fake *clock.Fake, task *models.Task, d time.Duration) {
	t.Helper()
	ctx := context.Background()
	e.Tracker.StartTask(ctx, task)
	fake.Advance(d)
	e.Tracker.StopCurrentEntry(ctx)
	if err := e.Tracker.LastError(); err != nil {
		t.Fatal(err)
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
	spaceKey = runeKey(" ")
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
)

// ============================================================
// Dashboard
// ============================================================

func loadedDashboard(t *testing.T, e *engine.Engine) dashboardModel {
	t.Helper()
	d := newDashboardModel(context.Background(), e)
	d.setSize(100, 40)
	d, _ = d.update(d.loadData()())
	return d
}

func TestDashboardLoadDataFavoritesFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Alpha")
	beta := createTask(t, e, "Beta")
	if err := e.Store.SetFavorite(context.Background(), beta.ID, true); err != nil {
		t.Fatal(err)
	}

	d := loadedDashboard(t, e)
	if len(d.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(d.tasks))
	}
	if d.tasks[0].Name != "Beta" {
		t.Fatalf("favorite should come first, got %s", d.tasks[0].Name)
	}
	if d.taskNames[beta.ID] != "Beta" {
		t.Fatal("task names should be indexed by id")
	}
}

func TestDashboardStartWithOneTask(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Writing")
	d := loadedDashboard(t, e)

	d, cmd := d.update(runeKey("s"))
	if d.picking {
		t.Fatal("a single task should start without the picker")
	}
	if !e.Tracker.IsTracking(d.tasks[0].ID) {
		t.Fatal("task should be tracked")
	}
	msg, ok := cmd().(trackingChangedMsg)
	if !ok || msg.text != "Tracking Writing" {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestDashboardPickerStartsAndSwitches(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Alpha")
	createTask(t, e, "Beta")
	d := loadedDashboard(t, e)

	d, _ = d.update(runeKey("s"))
	if !d.picking {
		t.Fatal("picker should open with several tasks")
	}
	d, _ = d.update(downKey)
	d, _ = d.update(enterKey)
	if d.picking {
		t.Fatal("picker should close after enter")
	}
	if got := e.Tracker.ActiveTask(); got == nil || got.Name != "Beta" {
		t.Fatalf("expected Beta to be tracked, got %v", got)
	}

	d, _ = d.update(runeKey("s"))
	d, cmd := d.update(enterKey)
	if got := e.Tracker.ActiveTask(); got == nil || got.Name != "Alpha" {
		t.Fatalf("expected switch to Alpha, got %v", got)
	}
	if msg, ok := cmd().(trackingChangedMsg); !ok || msg.text != "Switched to Alpha" {
		t.Fatalf("unexpected message %#v", msg)
	}

	open, err := e.Store.OpenEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one running entry, got %d", len(open))
	}
}

func TestDashboardPickerEscCancels(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Alpha")
	createTask(t, e, "Beta")
	d := loadedDashboard(t, e)

	d, _ = d.update(runeKey("s"))
	d, _ = d.update(escKey)
	if d.picking {
		t.Fatal("esc should close the picker")
	}
	if e.Tracker.ActiveEntry() != nil {
		t.Fatal("nothing should be tracked")
	}
}

func TestDashboardStartWithoutTasks(t *testing.T) {
	e, _ := newTestEngine(t)
	d := loadedDashboard(t, e)

	_, cmd := d.update(runeKey("s"))
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestDashboardStop(t *testing.T) {
	e, _ := newTestEngine(t)
	task := createTask(t, e, "Writing")
	d := loadedDashboard(t, e)

	if _, cmd := d.update(runeKey("x")); cmd != nil {
		t.Fatal("stop while idle should do nothing")
	}

	e.Tracker.StartTask(context.Background(), task)
	_, cmd := d.update(runeKey("x"))
	if e.Tracker.ActiveEntry() != nil {
		t.Fatal("entry should be stopped")
	}
	if msg, ok := cmd().(trackingChangedMsg); !ok || msg.text != "Tracking stopped" {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestDashboardViewShowsRunningEntry(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Writing")
	d := loadedDashboard(t, e)

	if !strings.Contains(d.view(), "STOPPED") {
		t.Fatal("idle dashboard should show STOPPED")
	}

	e.Tracker.StartTask(context.Background(), task)
	fake.Advance(90 * time.Second)

	v := d.view()
	for _, want := range []string{"00:01:30", "RUNNING", "Writing"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestDashboardGoalProgress(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Writing")
	if err := e.Store.SetDailyGoal(context.Background(), 3600); err != nil {
		t.Fatal(err)
	}
	trackFor(t, e, fake, task, 30*time.Minute)

	d := loadedDashboard(t, e)
	if d.todayTotal != 1800 {
		t.Fatalf("expected 1800s today, got %d", d.todayTotal)
	}
	v := d.view()
	if !strings.Contains(v, "50%") {
		t.Error("view should show goal progress")
	}
	if !strings.Contains(v, "1.0h") {
		t.Error("view should show the goal")
	}
}

func TestDashboardRecentShowsDeletedTask(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Temp")
	trackFor(t, e, fake, task, time.Minute)
	if err := e.Store.DeleteTask(context.Background(), task.ID); err != nil {
		t.Fatal(err)
	}

	d := loadedDashboard(t, e)
	if len(d.recent) != 1 {
		t.Fatalf("expected 1 recent entry, got %d", len(d.recent))
	}
	if !strings.Contains(d.view(), "(deleted task)") {
		t.Error("orphaned entry should be labeled")
	}
}

// ============================================================
// Tasks
// ============================================================

func loadedTasks(t *testing.T, e *engine.Engine) tasksModel {
	t.Helper()
	m := newTasksModel(context.Background(), e)
	m.setSize(100, 40)
	m, _ = m.update(m.refresh()())
	return m
}

func TestTasksFavoriteToggle(t *testing.T) {
	e, _ := newTestEngine(t)
	task := createTask(t, e, "Writing")
	m := loadedTasks(t, e)

	m, cmd := m.update(runeKey("f"))
	m, _ = m.update(cmd())

	got, err := e.Store.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Favorite {
		t.Fatal("task should be a favorite")
	}
	if !m.tasks[0].Favorite {
		t.Fatal("list should be refreshed")
	}
	favs := e.Widget.State().Favorites
	if len(favs) != 1 || favs[0].TaskName != "Writing" {
		t.Fatalf("widget favorites not published: %v", favs)
	}
}

func TestTasksArchiveAndShowArchived(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Old")
	m := loadedTasks(t, e)

	m, cmd := m.update(runeKey("d"))
	m, _ = m.update(cmd())
	if len(m.tasks) != 0 {
		t.Fatalf("archived task should be hidden, got %d", len(m.tasks))
	}

	m, cmd = m.update(runeKey("a"))
	m, _ = m.update(cmd())
	if len(m.tasks) != 1 || !m.tasks[0].Archived {
		t.Fatal("archived task should be listed with show archived")
	}
	if !strings.Contains(m.view(), "(archived)") {
		t.Error("view should mark archived tasks")
	}
}

func TestTasksRemoveRunningTask(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Writing")
	e.Tracker.StartTask(context.Background(), task)
	fake.Advance(time.Minute)
	m := loadedTasks(t, e)

	m, _ = m.update(runeKey("D"))
	if e.Tracker.ActiveEntry() != nil {
		t.Fatal("running entry should be stopped")
	}
	if _, err := e.Store.GetTask(context.Background(), task.ID); err == nil {
		t.Fatal("task should be deleted")
	}
	entries, err := e.Store.ListEntries(context.Background(), models.EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TaskID != "" {
		t.Fatal("entry should be kept without a task")
	}
}

func TestTasksSaveNewAndEdit(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	m := loadedTasks(t, e)

	m.formType = formNewTask
	*m.formName = "  Reading "
	*m.formColor = "#FF6B6B"
	if err := m.saveForm(); err != nil {
		t.Fatal(err)
	}
	task, err := e.Store.FindTaskByName(ctx, "Reading")
	if err != nil {
		t.Fatal(err)
	}
	if task.Color != "#FF6B6B" {
		t.Fatalf("unexpected color %s", task.Color)
	}

	m.formType = formEditTask
	m.editingID = task.ID
	*m.formName = "Books"
	if err := m.saveForm(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Store.FindTaskByName(ctx, "Books"); err != nil {
		t.Fatal("task should be renamed")
	}
}

func TestTasksSavePomodoro(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	task := createTask(t, e, "Focus")
	m := loadedTasks(t, e)

	m, _ = m.showPomodoroForm(task)
	if !m.formActive || m.formType != formPomodoro {
		t.Fatal("pomodoro form should be open")
	}
	if *m.formWork != "25" || *m.formSessions != "4" {
		t.Fatal("form should start from the default cycle")
	}

	*m.formEnabled = true
	*m.formWork = "50"
	*m.formShort = "10"
	*m.formLong = "20"
	*m.formSessions = "3"
	*m.formAutoBreaks = true
	if err := m.saveForm(); err != nil {
		t.Fatal(err)
	}
	got, err := e.Store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.PomodoroEnabled() {
		t.Fatal("pomodoro should be enabled")
	}
	want := models.PomodoroSettings{
		WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 20,
		SessionsBeforeLongBreak: 3, Enabled: true, AutoStartBreaks: true,
	}
	if *got.Pomodoro != want {
		t.Fatalf("got %+v, want %+v", *got.Pomodoro, want)
	}

	*m.formEnabled = false
	if err := m.saveForm(); err != nil {
		t.Fatal(err)
	}
	got, _ = e.Store.GetTask(ctx, task.ID)
	if got.PomodoroEnabled() {
		t.Fatal("pomodoro should be disabled")
	}
}

func TestTasksFormEscCancels(t *testing.T) {
	e, _ := newTestEngine(t)
	m := loadedTasks(t, e)

	m, _ = m.update(runeKey("n"))
	if !m.formActive {
		t.Fatal("n should open the new task form")
	}
	m, _ = m.update(escKey)
	if m.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestTaskFormValidators(t *testing.T) {
	if requireName("  ") == nil {
		t.Error("blank name should be rejected")
	}
	if requireName("Writing") != nil {
		t.Error("name should be accepted")
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if positiveInt(bad) == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
	if positiveInt(" 25 ") != nil {
		t.Error("25 should be accepted")
	}
}

// ============================================================
// Pomodoro
// ============================================================

func TestPomodoroStartNeedsPomodoroTask(t *testing.T) {
	e, _ := newTestEngine(t)
	p := newPomodoroModel(e)

	_, cmd := p.update(runeKey("s"))
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if e.Timer.Phase().IsActive() {
		t.Fatal("timer should stay idle")
	}
}

func TestPomodoroControls(t *testing.T) {
	e, _ := newTestEngine(t)
	task := createPomodoroTask(t, e, "Focus", 25)
	e.Tracker.StartTask(context.Background(), task)
	p := newPomodoroModel(e)

	if got := e.Timer.Phase(); got != pomodoro.WorkingPhase(1, 4) {
		t.Fatalf("tracking should start the cycle, got %v", got)
	}

	p, _ = p.update(spaceKey)
	st := e.Timer.Snapshot()
	if st.Phase != pomodoro.ShortBreakPhase(1) || !st.Waiting {
		t.Fatalf("skip should move to a waiting short break, got %v waiting=%v", st.Phase, st.Waiting)
	}

	p, _ = p.update(spaceKey)
	if e.Timer.IsWaiting() {
		t.Fatal("space should resume a waiting phase")
	}

	p, _ = p.update(runeKey("r"))
	if got := e.Timer.Phase(); got != pomodoro.WorkingPhase(1, 4) {
		t.Fatalf("reset should restart the cycle, got %v", got)
	}

	p, _ = p.update(runeKey("x"))
	if e.Timer.Phase().IsActive() {
		t.Fatal("x should stop the timer")
	}

	p, _ = p.update(runeKey("s"))
	if got := e.Timer.Phase(); got != pomodoro.WorkingPhase(1, 4) {
		t.Fatalf("s should start a cycle for the running task, got %v", got)
	}
}

func TestPomodoroViewShowsCountdown(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createPomodoroTask(t, e, "Focus", 25)
	p := newPomodoroModel(e)
	p.setSize(100, 40)

	if !strings.Contains(p.view(), "Ready to start") {
		t.Fatal("idle view should be ready to start")
	}

	e.Tracker.StartTask(context.Background(), task)
	fake.Advance(5 * time.Minute)

	v := p.view()
	for _, want := range []string{"20:00", "WORK", "0/4"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestRenderSessions(t *testing.T) {
	e, _ := newTestEngine(t)
	task := createPomodoroTask(t, e, "Focus", 25)
	e.Tracker.StartTask(context.Background(), task)
	p := newPomodoroModel(e)

	tests := []struct {
		phase pomodoro.Phase
		want  string
	}{
		{pomodoro.WorkingPhase(1, 4), "0/4"},
		{pomodoro.ShortBreakPhase(2), "2/4"},
		{pomodoro.WorkingPhase(3, 4), "2/4"},
		{pomodoro.LongBreakPhase(), "4/4"},
	}
	for _, tt := range tests {
		if got := p.renderSessions(tt.phase); !strings.Contains(got, tt.want) {
			t.Errorf("renderSessions(%v) = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestCompletionText(t *testing.T) {
	waiting := completionText(completionMsg{
		Finished: pomodoro.WorkingPhase(1, 4),
		Next:     pomodoro.ShortBreakPhase(1),
		Waiting:  true,
	})
	if !strings.Contains(waiting, "Focus session complete") || !strings.Contains(waiting, "space") {
		t.Errorf("unexpected text %q", waiting)
	}

	auto := completionText(completionMsg{
		Finished: pomodoro.ShortBreakPhase(1),
		Next:     pomodoro.WorkingPhase(2, 4),
	})
	if !strings.Contains(auto, "WORK started") {
		t.Errorf("unexpected text %q", auto)
	}
}

// ============================================================
// Reports
// ============================================================

func TestReportsRefreshAndView(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Writing")
	trackFor(t, e, fake, task, 45*time.Minute)
	if err := e.Store.SetDailyGoal(context.Background(), 1800); err != nil {
		t.Fatal(err)
	}

	r := newReportsModel(context.Background(), e)
	r.setSize(100, 40)
	r, _ = r.update(r.refresh()())

	if len(r.summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(r.summaries))
	}
	if r.summaries[0].TotalSeconds != 2700 {
		t.Fatalf("expected 2700s, got %d", r.summaries[0].TotalSeconds)
	}
	if r.streak != 1 {
		t.Fatalf("expected a 1 day streak, got %d", r.streak)
	}
	v := r.view()
	for _, want := range []string{"Writing", "45m 0s", "Goal 0.5h a day"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestReportsDateRange(t *testing.T) {
	e, _ := newTestEngine(t)
	r := newReportsModel(context.Background(), e)

	from, to := r.dateRange()
	if !from.Equal(time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily range %v - %v", from, to)
	}

	r, _ = r.update(enterKey)
	if r.mode != reportWeekly {
		t.Fatal("enter should switch to weekly")
	}
	from, to = r.dateRange()
	if !from.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("weekly range %v - %v", from, to)
	}

	r, _ = r.update(tea.KeyMsg{Type: tea.KeyLeft})
	from, _ = r.dateRange()
	if !from.Equal(time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("previous week should start Feb 23, got %v", from)
	}
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	r, _ = r.update(tea.KeyMsg{Type: tea.KeyRight})
	if r.offset != 0 {
		t.Fatalf("offset should not go below zero, got %d", r.offset)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsSave(t *testing.T) {
	e, _ := newTestEngine(t)
	s := newSettingsModel(context.Background(), e)

	*s.dailyGoal = "2.5"
	*s.locationAuthorized = true
	*s.gpsTrail = true
	if err := s.saveSettings(); err != nil {
		t.Fatal(err)
	}

	goal, err := e.Store.DailyGoal(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if goal != 9000 {
		t.Fatalf("expected 9000s goal, got %d", goal)
	}
	if !e.Feed.Authorized() || !e.Tracker.GPSTrailEnabled() {
		t.Fatal("location toggles should be applied")
	}

	*s.dailyGoal = "30"
	if err := s.saveSettings(); err == nil {
		t.Fatal("a goal over 24 hours should be rejected")
	}
}

func TestSettingsView(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Store.SetDailyGoal(context.Background(), 5400); err != nil {
		t.Fatal(err)
	}
	s := newSettingsModel(context.Background(), e)
	s.setSize(100, 40)
	s, _ = s.update(s.refresh()())

	v := s.view()
	for _, want := range []string{"daily_goal", "1.5h", "location access", "notifications", "widget dir"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestHoursConversion(t *testing.T) {
	tests := []struct {
		in   string
		secs int64
		ok   bool
	}{
		{"8", 28800, true},
		{" 1.5 ", 5400, true},
		{"0", 0, true},
		{"24", 86400, true},
		{"-1", 0, false},
		{"25", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := hoursToSecs(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("hoursToSecs(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.secs {
			t.Errorf("hoursToSecs(%q) = %d, want %d", tt.in, got, tt.secs)
		}
	}

	if got := secsToHours(5400); got != "1.5" {
		t.Errorf("secsToHours(5400) = %q", got)
	}
	if got := secsToHours(28800); got != "8" {
		t.Errorf("secsToHours(28800) = %q", got)
	}
}

func TestFormatSettingValue(t *testing.T) {
	if got := formatSettingValue("daily_goal", "5400"); got != "1.5h" {
		t.Errorf("got %q", got)
	}
	if got := formatSettingValue("other", "x"); got != "x" {
		t.Errorf("got %q", got)
	}
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T, e *engine.Engine) App {
	t.Helper()
	a := NewApp(context.Background(), e)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func TestNewAppLoading(t *testing.T) {
	e, _ := newTestEngine(t)
	a := NewApp(context.Background(), e)
	if a.activeView != viewDashboard {
		t.Fatal("app should open on the dashboard")
	}
	if a.View() != "Loading..." {
		t.Fatal("app should show loading before the first size")
	}
}

func TestAppHeaderContainsAllTabs(t *testing.T) {
	e, _ := newTestEngine(t)
	v := newTestApp(t, e).View()
	if !strings.Contains(v, "tracklet") {
		t.Error("header should contain the title")
	}
	for _, name := range viewNames {
		if !strings.Contains(v, name) {
			t.Errorf("header should contain %q", name)
		}
	}
}

func TestAppSwitchesViews(t *testing.T) {
	e, _ := newTestEngine(t)
	a := newTestApp(t, e)

	m, _ := a.Update(runeKey("2"))
	a = m.(App)
	if a.activeView != viewTasks {
		t.Fatalf("expected tasks view, got %d", a.activeView)
	}
	m, _ = a.Update(tabKey)
	a = m.(App)
	if a.activeView != viewReports {
		t.Fatalf("expected reports view, got %d", a.activeView)
	}
	m, _ = a.Update(runeKey("5"))
	a = m.(App)
	m, _ = a.Update(tabKey)
	a = m.(App)
	if a.activeView != viewDashboard {
		t.Fatalf("tab should wrap to the dashboard, got %d", a.activeView)
	}
}

func TestAppPickerCapturesKeys(t *testing.T) {
	e, _ := newTestEngine(t)
	createTask(t, e, "Alpha")
	createTask(t, e, "Beta")
	a := newTestApp(t, e)
	m, _ := a.Update(a.dashboard.loadData()())
	a = m.(App)

	m, _ = a.Update(runeKey("s"))
	a = m.(App)
	if !a.isCapturing() {
		t.Fatal("picker should capture input")
	}
	m, _ = a.Update(runeKey("2"))
	a = m.(App)
	if a.activeView != viewDashboard {
		t.Fatal("keys should go to the picker while it is open")
	}
}

func TestAppStatusMessages(t *testing.T) {
	e, _ := newTestEngine(t)
	a := newTestApp(t, e)

	m, _ := a.Update(statusMsg{text: "hello"})
	a = m.(App)
	if a.status != "hello" {
		t.Fatal("status should be set")
	}

	m, cmd := a.Update(trackingChangedMsg{text: "Tracking X"})
	a = m.(App)
	if a.status != "Tracking X" || cmd == nil {
		t.Fatal("tracking change should set status and reload")
	}
}

func TestAppFooterShowsRunningEntry(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createPomodoroTask(t, e, "Focus", 25)
	a := newTestApp(t, e)

	e.Tracker.StartTask(context.Background(), task)
	fake.Advance(time.Minute)

	footer := a.renderFooter()
	if !strings.Contains(footer, "00:01:00") {
		t.Error("footer should show elapsed time")
	}
	if !strings.Contains(footer, "WORK 24:00") {
		t.Error("footer should show the Pomodoro countdown")
	}
}

func TestAppTickAppliesWidgetAction(t *testing.T) {
	e, _ := newTestEngine(t)
	task := createTask(t, e, "Writing")
	a := newTestApp(t, e)

	if err := widget.Enqueue(e.Widget.Dir(), tracker.Action{Kind: tracker.ActionStart, TaskID: task.ID}); err != nil {
		t.Fatal(err)
	}
	_, cmd := a.Update(tickMsg(epoch))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	if !e.Tracker.IsTracking(task.ID) {
		t.Fatal("queued widget action should be applied on tick")
	}
}

func TestAppNotificationCue(t *testing.T) {
	e, _ := newTestEngine(t)
	a := newTestApp(t, e)

	if err := e.Scheduler.Notify("Arrived", "Tracking Office"); err != nil {
		t.Fatal(err)
	}
	msg := listenNotifications(e.Notifications)()
	m, cmd := a.Update(msg)
	a = m.(App)
	if !strings.Contains(a.status, "Arrived: Tracking Office") {
		t.Fatalf("unexpected status %q", a.status)
	}
	if cmd == nil {
		t.Fatal("listener should be re-armed")
	}
}

func TestAppCompletionCue(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createPomodoroTask(t, e, "Focus", 1)
	a := newTestApp(t, e)

	e.Tracker.StartTask(context.Background(), task)
	fake.Advance(time.Minute)

	msg := listenCompletions(e.Completions)()
	m, _ := a.Update(msg)
	a = m.(App)
	if !strings.Contains(a.status, "Focus session complete") {
		t.Fatalf("unexpected status %q", a.status)
	}
}

func TestAppNoCueChannels(t *testing.T) {
	if listenNotifications(nil) != nil || listenCompletions(nil) != nil {
		t.Fatal("nil channels should not be listened to")
	}
}

func TestAppExport(t *testing.T) {
	e, fake := newTestEngine(t)
	task := createTask(t, e, "Writing")
	trackFor(t, e, fake, task, 10*time.Minute)
	home := t.TempDir()
	t.Setenv("HOME", home)
	a := newTestApp(t, e)

	m, _ := a.Update(runeKey("e"))
	a = m.(App)
	if !a.exportPicking {
		t.Fatal("e should open the export picker")
	}
	m, _ = a.Update(downKey)
	a = m.(App)
	m, cmd := a.Update(enterKey)
	a = m.(App)
	if a.exportPicking {
		t.Fatal("picker should close on enter")
	}

	done, ok := cmd().(exportDoneMsg)
	if !ok {
		t.Fatal("expected exportDoneMsg")
	}
	if done.count != 1 {
		t.Fatalf("expected 1 entry, got %d", done.count)
	}
	if done.path != filepath.Join(home, "tracklet-export-2026-03-02.json") {
		t.Fatalf("unexpected path %s", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Keys
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) != 6 {
		t.Fatalf("expected 6 short help bindings, got %d", len(keys.ShortHelp()))
	}
	if len(keys.FullHelp()) != 4 {
		t.Fatalf("expected 4 full help rows, got %d", len(keys.FullHelp()))
	}
}
