package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tracklet/internal/format"
	"github.com/sadopc/tracklet/internal/models"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	TaskID      string `json:"task_id,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	GPSSamples  int    `json:"gps_samples"`
	Notes       string `json:"notes,omitempty"`
}

func ToJSON(entries []*models.TimeEntry, tasks map[string]*models.Task, samples map[string]int, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		secs := durationSeconds(e)
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}

		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Task:        taskName(tasks, e.TaskID),
			TaskID:      e.TaskID,
			StartTime:   e.StartTime.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationSec: secs,
			Duration:    format.HMS(time.Duration(secs) * time.Second),
			GPSSamples:  samples[e.ID],
			Notes:       e.Notes,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
