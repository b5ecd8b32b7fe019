package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/output"
)

var (
	entryTask  string
	entryLimit int
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "List, annotate and delete time entries",
}

var entryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent entries, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return entryListRun()
	},
}

var entryNoteCmd = &cobra.Command{
	Use:   "note <entry> <text>",
	Short: "Set the notes of an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return entryNoteRun(args[0], args[1])
	},
}

var entryRemoveCmd = &cobra.Command{
	Use:     "remove <entry>",
	Aliases: []string{"rm"},
	Short:   "Delete a finished entry and its GPS trail",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return entryRemoveRun(args[0])
	},
}

func init() {
	entryListCmd.Flags().StringVar(&entryTask, "task", "", "Only entries of this task")
	entryListCmd.Flags().IntVarP(&entryLimit, "limit", "n", 20, "Maximum number of entries")

	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryNoteCmd)
	entryCmd.AddCommand(entryRemoveCmd)
	rootCmd.AddCommand(entryCmd)
}

func entryListRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	filter := models.EntryFilter{Limit: entryLimit}
	if entryTask != "" {
		t, err := e.ResolveTask(ctx, entryTask)
		if err != nil {
			return err
		}
		filter.TaskID = t.ID
	}
	entries, err := e.Store.ListEntries(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.Info("No entries yet. Start one with: tracklet start <task>")
		return nil
	}
	tasks, err := e.Store.ListTasks(ctx, true)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(tasks))
	for _, t := range tasks {
		names[t.ID] = t.Name
	}

	now := e.Clock.Now()
	table := ui.Table([]string{"", "Start", "Task", "Duration", "Notes", "ID"})
	for _, en := range entries {
		marker, dur := "", format.Duration(en.Duration(now))
		if en.Running() {
			marker = output.Green("●")
		}
		name, ok := names[en.TaskID]
		if !ok {
			name = "(deleted task)"
		}
		_ = table.Append([]string{marker, en.StartTime.Local().Format("2006-01-02 15:04"), name, dur, en.Notes, en.ID})
	}
	return table.Render()
}

func entryNoteRun(id, notes string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	if err := e.Store.UpdateEntryNotes(context.Background(), id, notes); err != nil {
		return err
	}
	ui.Success("Notes saved for %s", id)
	return nil
}

func entryRemoveRun(id string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := context.Background()

	en, err := e.Store.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if en.Running() {
		return fmt.Errorf("entry %s is still running; stop it first", id)
	}
	if err := e.Store.DeleteEntry(ctx, id); err != nil {
		return err
	}
	ui.Success("Deleted entry %s (%s)", id, format.Duration(en.Duration(e.Clock.Now())))
	return nil
}
