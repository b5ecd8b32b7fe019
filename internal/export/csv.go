package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
)

var csvHeader = []string{"ID", "Task", "Start", "End", "Duration (s)", "Duration", "GPS Samples", "Notes"}

func ToCSV(entries []*models.TimeEntry, tasks map[string]*models.Task, samples map[string]int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		secs := durationSeconds(e)
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}

		row := []string{
			e.ID,
			taskName(tasks, e.TaskID),
			e.StartTime.Local().Format(time.RFC3339),
			endStr,
			strconv.FormatInt(secs, 10),
			format.HMS(time.Duration(secs) * time.Second),
			strconv.Itoa(samples[e.ID]),
			e.Notes,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func taskName(tasks map[string]*models.Task, id string) string {
	if t, ok := tasks[id]; ok {
		return t.Name
	}
	return "Unknown"
}

// durationSeconds is zero for entries that are still running.
func durationSeconds(e *models.TimeEntry) int64 {
	if e.EndTime == nil {
		return 0
	}
	return int64(e.Duration(*e.EndTime) / time.Second)
}
