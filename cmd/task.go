package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/output"
)

var (
	taskColor     string
	taskName      string
	taskFavorite  bool
	taskAll       bool
	taskUnarchive bool

	pomoWork       int
	pomoShort      int
	pomoLong       int
	pomoSessions   int
	pomoAutoBreaks bool
	pomoAutoWork   bool
	pomoOff        bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  "Add, edit, favorite, archive and remove the tasks time is tracked against.",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskAddRun(args[0])
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskListRun()
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Rename or recolor a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskEditRun(args[0])
	},
}

var taskFavCmd = &cobra.Command{
	Use:   "fav <task>",
	Short: "Mark a task as favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskFavoriteRun(args[0], true)
	},
}

var taskUnfavCmd = &cobra.Command{
	Use:   "unfav <task>",
	Short: "Remove a task from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskFavoriteRun(args[0], false)
	},
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <task>",
	Short: "Archive a task (or restore it with --undo)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskArchiveRun(args[0])
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:     "remove <task>",
	Aliases: []string{"rm"},
	Short:   "Delete a task; its entries are kept without a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskRemoveRun(args[0])
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task> <position>",
	Short: "Set the sort order of a task",
	Long:  "Lists and widget favorites are ordered by position, lowest first.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("position must be a number, got %q", args[1])
		}
		return taskMoveRun(args[0], pos)
	},
}

var taskPomodoroCmd = &cobra.Command{
	Use:   "pomodoro <task>",
	Short: "Configure the Pomodoro cycle of a task",
	Long: `Enable and configure the Pomodoro cycle that starts with a task.
Durations not given on the command line come from the pomodoro.* config keys.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskPomodoroRun(args[0])
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskColor, "color", "", "Hex color (default #6C63FF)")
	taskAddCmd.Flags().BoolVar(&taskFavorite, "favorite", false, "Add to favorites")

	taskListCmd.Flags().BoolVarP(&taskAll, "all", "a", false, "Include archived tasks")

	taskEditCmd.Flags().StringVar(&taskName, "name", "", "New name")
	taskEditCmd.Flags().StringVar(&taskColor, "color", "", "New hex color")

	taskArchiveCmd.Flags().BoolVar(&taskUnarchive, "undo", false, "Restore an archived task")

	taskPomodoroCmd.Flags().IntVar(&pomoWork, "work", 0, "Work minutes")
	taskPomodoroCmd.Flags().IntVar(&pomoShort, "short", 0, "Short break minutes")
	taskPomodoroCmd.Flags().IntVar(&pomoLong, "long", 0, "Long break minutes")
	taskPomodoroCmd.Flags().IntVar(&pomoSessions, "sessions", 0, "Work sessions before a long break")
	taskPomodoroCmd.Flags().BoolVar(&pomoAutoBreaks, "auto-breaks", false, "Start breaks without waiting")
	taskPomodoroCmd.Flags().BoolVar(&pomoAutoWork, "auto-work", false, "Start work sessions without waiting")
	taskPomodoroCmd.Flags().BoolVar(&pomoOff, "off", false, "Disable the Pomodoro cycle")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskFavCmd)
	taskCmd.AddCommand(taskUnfavCmd)
	taskCmd.AddCommand(taskArchiveCmd)
	taskCmd.AddCommand(taskRemoveCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskPomodoroCmd)
	rootCmd.AddCommand(taskCmd)
}

func taskAddRun(name string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.Store.CreateTask(ctx, name, taskColor)
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	if taskFavorite {
		if err := e.Store.SetFavorite(ctx, t.ID, true); err != nil {
			return err
		}
		publishFavorites(ctx, e)
	}

	ui.Success("Added task: %s", output.Cyan(t.Name))
	ui.VerboseLog("ID: %s", t.ID)
	return nil
}

func taskListRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	tasks, err := e.Store.ListTasks(ctx, taskAll)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		ui.Info("No tasks yet. Add one with: tracklet task add <name>")
		return nil
	}

	table := ui.Table([]string{"", "Name", "Color", "Fav", "Pomodoro", "ID"})
	for _, t := range tasks {
		marker := ""
		if e.Tracker.IsTracking(t.ID) {
			marker = output.Green("●")
		}
		name := t.Name
		if t.Archived {
			name += " (archived)"
		}
		_ = table.Append([]string{marker, name, t.Color, output.Flag(t.Favorite), pomodoroSummary(t), t.ID})
	}
	return table.Render()
}

func taskEditRun(ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	name, color := t.Name, t.Color
	if taskName != "" {
		name = taskName
	}
	if taskColor != "" {
		color = taskColor
	}
	if err := e.Store.UpdateTask(ctx, t.ID, name, color); err != nil {
		return fmt.Errorf("edit task: %w", err)
	}
	if t.Favorite {
		publishFavorites(ctx, e)
	}
	ui.Success("Updated task: %s", output.Cyan(name))
	return nil
}

func taskFavoriteRun(ref string, favorite bool) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if err := e.Store.SetFavorite(ctx, t.ID, favorite); err != nil {
		return err
	}
	publishFavorites(ctx, e)

	if favorite {
		ui.Success("Added to favorites: %s", output.Cyan(t.Name))
	} else {
		ui.Success("Removed from favorites: %s", output.Cyan(t.Name))
	}
	return nil
}

func taskArchiveRun(ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if err := e.Store.ArchiveTask(ctx, t.ID, !taskUnarchive); err != nil {
		return err
	}
	publishFavorites(ctx, e)

	if taskUnarchive {
		ui.Success("Restored task: %s", output.Cyan(t.Name))
	} else {
		ui.Success("Archived task: %s", output.Cyan(t.Name))
	}
	return nil
}

func taskRemoveRun(ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if e.Tracker.IsTracking(t.ID) {
		e.Tracker.StopCurrentEntry(ctx)
		reportTrackerError(e)
	}
	if err := e.Store.DeleteTask(ctx, t.ID); err != nil {
		return fmt.Errorf("remove task: %w", err)
	}
	publishFavorites(ctx, e)

	ui.Success("Removed task: %s", output.Cyan(t.Name))
	return nil
}

func taskPomodoroRun(ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}

	if pomoOff {
		if err := e.Store.ClearPomodoroSettings(ctx, t.ID); err != nil {
			return err
		}
		ui.Success("Pomodoro disabled for %s", output.Cyan(t.Name))
		return nil
	}

	s := pomodoroDefaults()
	if t.Pomodoro != nil {
		s = *t.Pomodoro
	}
	s.Enabled = true
	if pomoWork > 0 {
		s.WorkMinutes = pomoWork
	}
	if pomoShort > 0 {
		s.ShortBreakMinutes = pomoShort
	}
	if pomoLong > 0 {
		s.LongBreakMinutes = pomoLong
	}
	if pomoSessions > 0 {
		s.SessionsBeforeLongBreak = pomoSessions
	}
	s.AutoStartBreaks = pomoAutoBreaks
	s.AutoStartWork = pomoAutoWork

	if err := e.Store.SavePomodoroSettings(ctx, t.ID, s); err != nil {
		return err
	}
	t.Pomodoro = &s
	ui.Success("Pomodoro for %s: %s", output.Cyan(t.Name), pomodoroSummary(t))
	return nil
}

// pomodoroDefaults reads the pomodoro.* config keys.
func pomodoroDefaults() models.PomodoroSettings {
	return models.PomodoroSettings{
		WorkMinutes:             viper.GetInt("pomodoro.work_minutes"),
		ShortBreakMinutes:       viper.GetInt("pomodoro.short_break_minutes"),
		LongBreakMinutes:        viper.GetInt("pomodoro.long_break_minutes"),
		SessionsBeforeLongBreak: viper.GetInt("pomodoro.sessions_before_long_break"),
	}
}

func pomodoroSummary(t *models.Task) string {
	if !t.PomodoroEnabled() {
		return ""
	}
	p := t.Pomodoro
	s := fmt.Sprintf("%d/%d/%d x%d", p.WorkMinutes, p.ShortBreakMinutes, p.LongBreakMinutes, p.SessionsBeforeLongBreak)
	if p.AutoStartBreaks || p.AutoStartWork {
		s += " auto"
	}
	return s
}

func publishFavorites(ctx context.Context, e *engine.Engine) {
	favs, err := e.Tracker.PublishFavorites(ctx)
	if err != nil {
		ui.Warning("Could not update favorites: %v", err)
		return
	}
	ui.VerboseLog("%d favorites published", len(favs))
}

func taskMoveRun(ref string, pos int) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	t, err := e.ResolveTask(ctx, ref)
	if err != nil {
		return err
	}
	if err := e.Store.SetSortOrder(ctx, t.ID, pos); err != nil {
		return err
	}
	if t.Favorite {
		publishFavorites(ctx, e)
	}
	ui.Success("Moved %s to position %d", output.Cyan(t.Name), pos)
	return nil
}
