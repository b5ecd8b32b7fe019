package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sadopc/tracklet/internal/output"
	"github.com/sadopc/tracklet/internal/tracker"
	"github.com/sadopc/tracklet/internal/widget"
)

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Inspect the widget state or queue a widget action",
	Long: `The widget directory holds state.json, written whenever tracking changes,
and action.json, a pending start or stop request applied the next time
tracklet comes to the foreground.

Running bare 'tracklet widget' shows the published state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return widgetShowRun()
	},
}

var widgetStartCmd = &cobra.Command{
	Use:   "start <task>",
	Short: "Queue a start request for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return widgetQueueRun(tracker.ActionStart, args[0])
	},
}

var widgetStopCmd = &cobra.Command{
	Use:   "stop <task>",
	Short: "Queue a stop request for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return widgetQueueRun(tracker.ActionStop, args[0])
	},
}

func init() {
	widgetCmd.AddCommand(widgetStartCmd)
	widgetCmd.AddCommand(widgetStopCmd)
	rootCmd.AddCommand(widgetCmd)
}

func widgetShowRun() error {
	st, err := widget.ReadState(viper.GetString("widget.dir"))
	if err != nil {
		return err
	}
	if st.Active == nil {
		ui.Info("Widget shows nothing running")
	} else {
		fmt.Fprintf(ui.Out, "%s %s since %s\n", output.Green("●"), output.Cyan(st.Active.TaskName), st.Active.StartTime.Local().Format("15:04"))
	}
	for i, f := range st.Favorites {
		fmt.Fprintf(ui.Out, "  %d. %s\n", i+1, f.TaskName)
	}
	if !st.UpdatedAt.IsZero() {
		ui.VerboseLog("Updated %s", st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// widgetQueueRun writes action.json without applying it, the way a widget
// tap does while the app is in the background.
func widgetQueueRun(kind tracker.ActionKind, ref string) error {
	e, err := openEngine(false)
	if err != nil {
		return err
	}
	t, err := e.ResolveTask(context.Background(), ref)
	if err != nil {
		return err
	}
	if err := widget.Enqueue(viper.GetString("widget.dir"), tracker.Action{Kind: kind, TaskID: t.ID}); err != nil {
		return err
	}
	ui.Success("Queued %s for %s", kind, output.Cyan(t.Name))
	return nil
}
