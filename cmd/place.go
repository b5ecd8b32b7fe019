package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/engine"
	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/output"
)

var (
	placeLat      float64
	placeLon      float64
	placeRadius   float64
	placeTask     string
	placeAutoStop bool
	placeDisabled bool
	placeName     string
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Manage geofenced places",
	Long: `Places are circular regions. Entering an enabled place can start its
task; leaving it can stop tracking again.`,
}

var placeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return errors.New("--lat and --lon are required")
		}
		return placeAddRun(args[0])
	},
}

var placeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List places",
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeListRun()
	},
}

var placeEditCmd = &cobra.Command{
	Use:   "edit <place>",
	Short: "Move, resize or retarget a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeEditRun(cmd, args[0])
	},
}

var placeEnableCmd = &cobra.Command{
	Use:   "enable <place>",
	Short: "Turn on the geofence of a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeEnableRun(args[0], true)
	},
}

var placeDisableCmd = &cobra.Command{
	Use:   "disable <place>",
	Short: "Turn off the geofence of a place",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeEnableRun(args[0], false)
	},
}

var placeRemoveCmd = &cobra.Command{
	Use:     "remove <place>",
	Aliases: []string{"rm"},
	Short:   "Delete a place",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeRemoveRun(args[0])
	},
}

func init() {
	placeAddCmd.Flags().Float64Var(&placeLat, "lat", 0, "Latitude of the center")
	placeAddCmd.Flags().Float64Var(&placeLon, "lon", 0, "Longitude of the center")
	placeAddCmd.Flags().Float64Var(&placeRadius, "radius", 100, "Radius in meters")
	placeAddCmd.Flags().StringVar(&placeTask, "task", "", "Task to start on arrival")
	placeAddCmd.Flags().BoolVar(&placeAutoStop, "auto-stop", false, "Stop tracking when leaving")
	placeAddCmd.Flags().BoolVar(&placeDisabled, "disabled", false, "Add without enabling the geofence")

	placeEditCmd.Flags().StringVar(&placeName, "name", "", "New name")
	placeEditCmd.Flags().Float64Var(&placeLat, "lat", 0, "Latitude of the center")
	placeEditCmd.Flags().Float64Var(&placeLon, "lon", 0, "Longitude of the center")
	placeEditCmd.Flags().Float64Var(&placeRadius, "radius", 100, "Radius in meters")
	placeEditCmd.Flags().StringVar(&placeTask, "task", "", `Task to start on arrival ("" for none)`)
	placeEditCmd.Flags().BoolVar(&placeAutoStop, "auto-stop", false, "Stop tracking when leaving")

	placeCmd.AddCommand(placeAddCmd)
	placeCmd.AddCommand(placeEditCmd)
	placeCmd.AddCommand(placeListCmd)
	placeCmd.AddCommand(placeEnableCmd)
	placeCmd.AddCommand(placeDisableCmd)
	placeCmd.AddCommand(placeRemoveCmd)
	rootCmd.AddCommand(placeCmd)
}

func placeAddRun(name string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p := &models.Place{
		Name:            name,
		Latitude:        placeLat,
		Longitude:       placeLon,
		RadiusMeters:    placeRadius,
		GeofenceEnabled: !placeDisabled,
		AutoStopOnExit:  placeAutoStop,
	}
	if placeTask != "" {
		t, err := e.ResolveTask(ctx, placeTask)
		if err != nil {
			return err
		}
		p.AutoStartTaskID = t.ID
	}
	if err := e.Store.CreatePlace(ctx, p); err != nil {
		return fmt.Errorf("add place: %w", err)
	}

	ui.Success("Added place: %s (%.0fm around %.5f, %.5f)", output.Cyan(p.Name), p.RadiusMeters, p.Latitude, p.Longitude)
	return nil
}

func placeListRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	places, err := e.Store.ListPlaces(ctx)
	if err != nil {
		return err
	}
	if len(places) == 0 {
		ui.Info("No places yet. Add one with: tracklet place add <name> --lat <lat> --lon <lon>")
		return nil
	}

	table := ui.Table([]string{"Name", "Center", "Radius", "Enabled", "Starts", "Auto-stop", "ID"})
	for _, p := range places {
		starts := ""
		if p.AutoStartTaskID != "" {
			starts = "?"
			if t, err := e.Store.GetTask(ctx, p.AutoStartTaskID); err == nil {
				starts = t.Name
			}
		}
		_ = table.Append([]string{
			p.Name,
			fmt.Sprintf("%.5f, %.5f", p.Latitude, p.Longitude),
			strconv.FormatFloat(p.RadiusMeters, 'f', 0, 64) + "m",
			output.Flag(p.GeofenceEnabled),
			starts,
			output.Flag(p.AutoStopOnExit),
			p.ID,
		})
	}
	return table.Render()
}

// placeEditRun changes only the fields whose flags were given.
func placeEditRun(cmd *cobra.Command, ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePlace(ctx, e, ref)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = placeName
	}
	if flags.Changed("lat") {
		p.Latitude = placeLat
	}
	if flags.Changed("lon") {
		p.Longitude = placeLon
	}
	if flags.Changed("radius") {
		p.RadiusMeters = placeRadius
	}
	if flags.Changed("auto-stop") {
		p.AutoStopOnExit = placeAutoStop
	}
	if flags.Changed("task") {
		p.AutoStartTaskID = ""
		if placeTask != "" {
			t, err := e.ResolveTask(ctx, placeTask)
			if err != nil {
				return err
			}
			p.AutoStartTaskID = t.ID
		}
	}

	if err := e.Store.UpdatePlace(ctx, p); err != nil {
		return fmt.Errorf("edit place: %w", err)
	}
	if err := e.ReloadPlaces(ctx); err != nil {
		return err
	}
	ui.Success("Updated place: %s", output.Cyan(p.Name))
	return nil
}

func placeEnableRun(ref string, enabled bool) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePlace(ctx, e, ref)
	if err != nil {
		return err
	}
	if err := e.Store.SetGeofenceEnabled(ctx, p.ID, enabled); err != nil {
		return err
	}
	if err := e.ReloadPlaces(ctx); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	ui.Success("Geofence %s for %s", state, output.Cyan(p.Name))
	return nil
}

func placeRemoveRun(ref string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolvePlace(ctx, e, ref)
	if err != nil {
		return err
	}
	if err := e.Store.DeletePlace(ctx, p.ID); err != nil {
		return fmt.Errorf("remove place: %w", err)
	}
	ui.Success("Removed place: %s", output.Cyan(p.Name))
	return nil
}

// resolvePlace finds a place by id or exact name.
func resolvePlace(ctx context.Context, e *engine.Engine, ref string) (*models.Place, error) {
	p, err := e.Store.GetPlace(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	places, err := e.Store.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range places {
		if p.Name == ref {
			return p, nil
		}
	}
	return nil, fmt.Errorf("place %q: %w", ref, models.ErrNotFound)
}
