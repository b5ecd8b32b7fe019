package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/models"
)

var (
	exportFormat string
	exportOut    string
	exportTask   string
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export time entries to CSV or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun()
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default tracklet-export-<date>.<format>)")
	exportCmd.Flags().StringVar(&exportTask, "task", "", "Only entries of this task")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "Only entries started on or after this date (YYYY-MM-DD)")
	rootCmd.AddCommand(exportCmd)
}

func exportRun() error {
	exportFormat = strings.ToLower(exportFormat)
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format %q (use csv or json)", exportFormat)
	}
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var filter models.EntryFilter
	if exportTask != "" {
		t, err := e.ResolveTask(ctx, exportTask)
		if err != nil {
			return err
		}
		filter.TaskID = t.ID
	}
	if exportSince != "" {
		since, err := time.Parse("2006-01-02", exportSince)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		filter.From = &since
	}

	path := exportOut
	if path == "" {
		path = fmt.Sprintf("tracklet-export-%s.%s", e.Clock.Now().Format("2006-01-02"), exportFormat)
	}
	n, err := e.Export(ctx, filter, exportFormat, path)
	if err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	ui.Success("Exported %d entries to %s", n, abs)
	return nil
}
