package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/output"
)

var startCmd = &cobra.Command{
	Use:   "start <task>",
	Short: "Start tracking a task, stopping whatever runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return startRun(args[0], false)
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <task>",
	Short: "Stop the running entry and start another task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return startRun(args[0], true)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopRun()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is being tracked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

func startRun(ref string, switching bool) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if t.Archived {
		ui.Warning("%s is archived", t.Name)
	}

	if prev := e.Tracker.ActiveEntry(); prev != nil {
		ui.VerboseLog("Stopping entry %s after %s", prev.ID, format.Duration(prev.Duration(e.Clock.Now())))
	}
	if switching {
		e.Tracker.SwitchTask(ctx, t)
	} else {
		e.Tracker.StartTask(ctx, t)
	}
	reportTrackerError(e)

	ui.Success("Tracking %s", output.Cyan(t.Name))
	if t.PomodoroEnabled() {
		st := e.Timer.Snapshot()
		ui.Info("Pomodoro %s, %s left", st.Phase, format.Clock(st.Remaining))
	}
	return nil
}

func stopRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	entry := e.Tracker.ActiveEntry()
	if entry == nil {
		ui.Info("Nothing is being tracked")
		return nil
	}
	name := taskLabel(e)

	e.Tracker.StopCurrentEntry(ctx)
	reportTrackerError(e)

	ui.Success("Stopped %s after %s", output.Cyan(name), format.Duration(entry.Duration(e.Clock.Now())))
	return nil
}

func statusRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()
	now := e.Clock.Now()

	entry := e.Tracker.ActiveEntry()
	if entry == nil {
		ui.Info("Nothing is being tracked")
	} else {
		fmt.Fprintf(ui.Out, "%s %s  %s  since %s\n",
			output.Green("●"),
			output.Cyan(taskLabel(e)),
			format.HMS(entry.Duration(now)),
			entry.StartTime.Local().Format("15:04"),
		)
		if t := e.Tracker.ActiveTask(); t.PomodoroEnabled() {
			fmt.Fprintf(ui.Out, "  Pomodoro: %s\n", pomodoroSummary(t))
		}
		if e.Tracker.GPSTrailEnabled() {
			samples, err := e.Store.ListSamples(ctx, entry.ID)
			if err == nil {
				fmt.Fprintf(ui.Out, "  GPS trail: %d samples\n", len(samples))
			}
		}
	}

	for _, o := range e.Tracker.OrphanedEntries() {
		ui.Warning("Entry %s from %s was never stopped", o.ID, o.StartTime.Local().Format("2006-01-02 15:04"))
	}
	if place := e.Geofences.ActivePlaceID(); place != "" {
		ui.VerboseLog("Auto-started at place %s", place)
	}

	total, err := e.Store.GetDayTotal(ctx, now)
	if err != nil {
		return err
	}
	if entry != nil {
		total += int64(entry.Duration(now).Seconds())
	}
	goal, err := e.Store.DailyGoal(ctx)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("Today: %s", format.Seconds(total))
	if goal > 0 {
		line += fmt.Sprintf(" of %s (%s)", format.Hours(goal), output.GoalColor(int(total*100/goal)))
	}
	fmt.Fprintln(ui.Out, line)

	reportTrackerError(e)
	return nil
}

// taskLabel names the running task, or marks the entry as orphaned.
func taskLabel(e *engine.Engine) string {
	if t := e.Tracker.ActiveTask(); t != nil {
		return t.Name
	}
	return "(deleted task)"
}
