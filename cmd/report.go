package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/output"
)

var reportDays int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show time per task per day, goal progress and streak",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun()
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal [hours]",
	Short: "Show or set the daily goal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return goalSetRun(args[0])
		}
		return goalShowRun()
	},
}

func init() {
	reportCmd.Flags().IntVarP(&reportDays, "days", "d", 7, "Number of days to include, ending today")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(goalCmd)
}

func reportRun() error {
	if reportDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	now := e.Clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, 1-reportDays)
	to := today.AddDate(0, 0, 1)

	summaries, err := e.Store.GetDailySummary(ctx, from, to)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		ui.Info("No finished entries between %s and %s", from.Format("Jan 02"), today.Format("Jan 02"))
	} else {
		table := ui.Table([]string{"Date", "Task", "Duration", "Entries"})
		var total int64
		for _, s := range summaries {
			total += s.TotalSeconds
			_ = table.Append([]string{s.Date, s.TaskName, format.HMS(time.Duration(s.TotalSeconds) * time.Second), strconv.Itoa(s.EntryCount)})
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintf(ui.Out, "\nTotal: %s over %d days\n", format.Seconds(total), reportDays)
	}
	return goalShowRun()
}

func goalShowRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()
	now := e.Clock.Now()

	goal, err := e.Store.DailyGoal(ctx)
	if err != nil {
		return err
	}
	if goal <= 0 {
		ui.Info("No daily goal set")
		return nil
	}
	total, err := e.Store.GetDayTotal(ctx, now)
	if err != nil {
		return err
	}
	streak, err := e.Store.GoalStreak(ctx, now, goal)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "Goal: %s a day, today %s (%s), streak %d days\n",
		format.Hours(goal), format.Seconds(total), output.GoalColor(int(total*100/goal)), streak)
	return nil
}

func goalSetRun(arg string) error {
	hours, err := strconv.ParseFloat(arg, 64)
	if err != nil || hours < 0 || hours > 24 {
		return fmt.Errorf("goal must be a number of hours between 0 and 24, got %q", arg)
	}
	e, err := getEngine()
	if err != nil {
		return err
	}
	secs := int64(hours * 3600)
	if err := e.Store.SetDailyGoal(context.Background(), secs); err != nil {
		return err
	}
	ui.Success("Daily goal set to %s", format.Hours(secs))
	return nil
}
