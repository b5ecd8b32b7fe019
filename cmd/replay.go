package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/location"
	"github.com/sadopc/tracklet/internal/output"
)

var replayDelay time.Duration

var replayCmd = &cobra.Command{
	Use:   "replay <trail.csv>",
	Short: "Feed a recorded GPS trail through geofences and the running entry",
	Long: `Replay reads a CSV trail with columns lat,lon,alt,accuracy,speed,timestamp
(RFC 3339) and feeds each fix through place monitoring. Entering or leaving a
place can start or stop tracking; fixes recorded while an entry runs with
gps_trail.enabled are stored on that entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return replayRun(args[0])
	},
}

func init() {
	replayCmd.Flags().DurationVar(&replayDelay, "delay", 0, "Pause between fixes (e.g. 200ms)")
	rootCmd.AddCommand(replayCmd)
}

func replayRun(path string) error {
	samples, err := location.ReadTrailFile(path)
	if err != nil {
		return err
	}
	e, err := getEngine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !e.Feed.Authorized() && e.Tracker.GPSTrailEnabled() {
		ui.Warning("Location access is not authorized; fixes will only drive geofences (set location.authorized)")
	}
	ui.Info("Replaying %d fixes from %s", len(samples), path)

	if err := e.Replay(ctx, samples, replayDelay); err != nil {
		return err
	}
	reportTrackerError(e)

	if entry := e.Tracker.ActiveEntry(); entry != nil {
		ui.Success("Tracking %s for %s, %d fixes on the trail",
			output.Cyan(taskLabel(e)), format.Duration(entry.Duration(e.Clock.Now())), len(entry.Samples))
	} else {
		ui.Success("Replay finished, nothing is being tracked")
	}
	return nil
}
