package cmd

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/widget"
)

// resetTaskFlags clears flag variables shared between task subcommands.
func resetTaskFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		taskColor, taskName = "", ""
		taskFavorite, taskAll, taskUnarchive = false, false, false
		pomoWork, pomoShort, pomoLong, pomoSessions = 0, 0, 0, 0
		pomoAutoBreaks, pomoAutoWork, pomoOff = false, false, false
	}
	reset()
	t.Cleanup(reset)
}

// newProcess drops the shared engine the way a new CLI invocation starts
// without one.
func newProcess() {
	closeEngine()
}

func TestTaskAddAndList(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)

	taskFavorite = true
	require.NoError(t, taskAddRun("Writing"))
	taskFavorite = false
	require.NoError(t, taskAddRun("Reading"))
	assert.Contains(t, out.String(), "Added task")

	out.Reset()
	require.NoError(t, taskListRun())
	assert.Contains(t, out.String(), "Writing")
	assert.Contains(t, out.String(), "Reading")

	st, err := widget.ReadState(viper.GetString("widget.dir"))
	require.NoError(t, err)
	require.Len(t, st.Favorites, 1)
	assert.Equal(t, "Writing", st.Favorites[0].TaskName)
}

func TestTaskAddDuplicate(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Writing"))
	assert.Error(t, taskAddRun("Writing"))
}

func TestTaskListEmpty(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskListRun())
	assert.Contains(t, out.String(), "No tasks yet")
}

func TestTaskArchiveHidesFromList(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Old"))
	require.NoError(t, taskArchiveRun("Old"))

	out.Reset()
	require.NoError(t, taskListRun())
	assert.NotContains(t, out.String(), "Old")

	taskAll = true
	out.Reset()
	require.NoError(t, taskListRun())
	assert.Contains(t, out.String(), "Old (archived)")
}

func TestTaskPomodoroUsesConfigDefaults(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)
	viper.Set("pomodoro.work_minutes", 50)

	require.NoError(t, taskAddRun("Deep work"))
	pomoShort = 10
	require.NoError(t, taskPomodoroRun("Deep work"))

	e, err := getEngine()
	require.NoError(t, err)
	task, err := e.ResolveTask(context.Background(), "Deep work")
	require.NoError(t, err)
	require.True(t, task.PomodoroEnabled())
	assert.Equal(t, 50, task.Pomodoro.WorkMinutes)
	assert.Equal(t, 10, task.Pomodoro.ShortBreakMinutes)
	assert.Equal(t, 15, task.Pomodoro.LongBreakMinutes)
	assert.Equal(t, 4, task.Pomodoro.SessionsBeforeLongBreak)
	assert.Equal(t, "50/10/15 x4", pomodoroSummary(task))

	pomoOff = true
	require.NoError(t, taskPomodoroRun("Deep work"))
	task, err = e.ResolveTask(context.Background(), "Deep work")
	require.NoError(t, err)
	assert.False(t, task.PomodoroEnabled())
}

func TestStartStopAcrossProcesses(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Writing"))
	newProcess()

	require.NoError(t, startRun("Writing", false))
	assert.Contains(t, out.String(), "Tracking")
	newProcess()

	out.Reset()
	require.NoError(t, statusRun())
	assert.Contains(t, out.String(), "Writing")
	assert.Contains(t, out.String(), "Today:")
	newProcess()

	out.Reset()
	require.NoError(t, stopRun())
	assert.Contains(t, out.String(), "Stopped")

	e, err := getEngine()
	require.NoError(t, err)
	assert.Nil(t, e.Tracker.ActiveEntry())
	entries, err := e.Store.ListEntries(context.Background(), models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotNil(t, entries[0].EndTime)
}

func TestSwitchKeepsOneRunningEntry(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Writing"))
	require.NoError(t, taskAddRun("Reading"))
	require.NoError(t, startRun("Writing", false))
	require.NoError(t, startRun("Reading", true))

	e, err := getEngine()
	require.NoError(t, err)
	open, err := e.Store.OpenEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Reading", taskLabel(e))
}

func TestStartUnknownTask(t *testing.T) {
	testEnv(t)

	err := startRun("missing", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStopWhenIdle(t *testing.T) {
	_, out, _ := testEnv(t)

	require.NoError(t, stopRun())
	assert.Contains(t, out.String(), "Nothing is being tracked")
}

func TestRemoveRunningTaskStopsTracking(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Writing"))
	require.NoError(t, startRun("Writing", false))
	require.NoError(t, taskRemoveRun("Writing"))

	e, err := getEngine()
	require.NoError(t, err)
	assert.Nil(t, e.Tracker.ActiveEntry())
	entries, err := e.Store.ListEntries(context.Background(), models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].TaskID)
}

func TestWidgetQueueAppliedByNextCommand(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)

	require.NoError(t, taskAddRun("Writing"))
	newProcess()

	require.NoError(t, widgetQueueRun("start", "Writing"))
	newProcess()

	out.Reset()
	require.NoError(t, statusRun())
	assert.Contains(t, out.String(), "Writing")

	out.Reset()
	require.NoError(t, widgetShowRun())
	assert.Contains(t, out.String(), "Writing")
}

func TestGoalSetAndShow(t *testing.T) {
	_, out, _ := testEnv(t)

	require.NoError(t, goalShowRun())
	assert.Contains(t, out.String(), "No daily goal set")

	require.NoError(t, goalSetRun("2"))
	out.Reset()
	require.NoError(t, goalShowRun())
	assert.Contains(t, out.String(), "Goal: 2.0h a day")
	assert.Contains(t, out.String(), "streak 0 days")
}

func TestGoalSetRejectsBadInput(t *testing.T) {
	testEnv(t)

	for _, arg := range []string{"abc", "-1", "25"} {
		assert.Error(t, goalSetRun(arg), arg)
	}
}

func TestPlaceAddAndList(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)
	t.Cleanup(func() {
		placeLat, placeLon, placeRadius = 0, 0, 0
		placeTask = ""
		placeAutoStop, placeDisabled = false, false
	})

	require.NoError(t, taskAddRun("Office work"))
	placeLat, placeLon, placeRadius = 52.52, 13.405, 150
	placeTask = "Office work"
	placeAutoStop = true
	require.NoError(t, placeAddRun("HQ"))

	out.Reset()
	require.NoError(t, placeListRun())
	assert.Contains(t, out.String(), "HQ")
	assert.Contains(t, out.String(), "Office work")
	assert.Contains(t, out.String(), "150m")

	require.NoError(t, placeEnableRun("HQ", false))
	e, err := getEngine()
	require.NoError(t, err)
	places, err := e.Store.GeofencePlaces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, places)

	require.NoError(t, placeRemoveRun("HQ"))
	_, err = resolvePlace(context.Background(), e, "HQ")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPlaceEditChangesGivenFields(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)
	t.Cleanup(func() {
		placeLat, placeLon, placeRadius = 0, 0, 0
		placeTask, placeName = "", ""
		placeAutoStop, placeDisabled = false, false
	})

	require.NoError(t, taskAddRun("Gym"))
	placeLat, placeLon, placeRadius = 52.52, 13.405, 100
	require.NoError(t, placeAddRun("Club"))

	flags := placeEditCmd.Flags()
	require.NoError(t, flags.Set("radius", "250"))
	require.NoError(t, flags.Set("task", "Gym"))
	require.NoError(t, placeEditRun(placeEditCmd, "Club"))

	e, err := getEngine()
	require.NoError(t, err)
	p, err := resolvePlace(context.Background(), e, "Club")
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.RadiusMeters)
	assert.Equal(t, 52.52, p.Latitude)
	gym, err := e.ResolveTask(context.Background(), "Gym")
	require.NoError(t, err)
	assert.Equal(t, gym.ID, p.AutoStartTaskID)
}

func TestTaskMoveReordersFavorites(t *testing.T) {
	testEnv(t)
	resetTaskFlags(t)

	taskFavorite = true
	require.NoError(t, taskAddRun("A"))
	require.NoError(t, taskAddRun("B"))
	require.NoError(t, taskMoveRun("B", -1))

	st, err := widget.ReadState(viper.GetString("widget.dir"))
	require.NoError(t, err)
	require.Len(t, st.Favorites, 2)
	assert.Equal(t, "B", st.Favorites[0].TaskName)
}

func TestEntryListNoteRemove(t *testing.T) {
	_, out, _ := testEnv(t)
	resetTaskFlags(t)
	t.Cleanup(func() { entryTask, entryLimit = "", 20 })
	entryLimit = 20

	require.NoError(t, entryListRun())
	assert.Contains(t, out.String(), "No entries yet")

	require.NoError(t, taskAddRun("Writing"))
	require.NoError(t, startRun("Writing", false))

	e, err := getEngine()
	require.NoError(t, err)
	running := e.Tracker.ActiveEntry()
	require.NotNil(t, running)
	assert.Error(t, entryRemoveRun(running.ID), "running entries cannot be deleted")

	require.NoError(t, entryNoteRun(running.ID, "chapter 3"))
	require.NoError(t, stopRun())

	out.Reset()
	entryTask = "Writing"
	require.NoError(t, entryListRun())
	assert.Contains(t, out.String(), "chapter 3")
	assert.Contains(t, out.String(), running.ID)

	require.NoError(t, entryRemoveRun(running.ID))
	_, err = e.Store.GetEntry(context.Background(), running.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, entryNoteRun("missing", "x"), models.ErrNotFound)
}
