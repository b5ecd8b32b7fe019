// Package models holds the entities shared by the tracker core and its adapters.
package models

import (
	"errors"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by repositories when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// NewID generates a new ULID string.
func NewID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// PomodoroSettings configures Pomodoro cycles for one task.
type PomodoroSettings struct {
	WorkMinutes             int
	ShortBreakMinutes       int
	LongBreakMinutes        int
	SessionsBeforeLongBreak int
	Enabled                 bool
	AutoStartBreaks         bool
	AutoStartWork           bool
}

// DefaultPomodoroSettings returns the classic 25/5/15 x4 configuration, disabled.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{
		WorkMinutes:             25,
		ShortBreakMinutes:       5,
		LongBreakMinutes:        15,
		SessionsBeforeLongBreak: 4,
	}
}

type Task struct {
	ID        string
	Name      string
	Color     string
	Favorite  bool
	Archived  bool
	SortOrder int
	Pomodoro  *PomodoroSettings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PomodoroEnabled reports whether starting this task should start a Pomodoro cycle.
func (t *Task) PomodoroEnabled() bool {
	return t != nil && t.Pomodoro != nil && t.Pomodoro.Enabled
}

// LocationSample is one GPS fix recorded against a running entry.
type LocationSample struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Accuracy  float64 // horizontal, meters
	Speed     float64 // meters per second
	Timestamp time.Time
}

type TimeEntry struct {
	ID        string
	TaskID    string // empty for orphaned entries
	StartTime time.Time
	EndTime   *time.Time
	Notes     string
	Samples   []LocationSample
	CreatedAt time.Time
}

// Running reports whether the entry has no end time.
func (e *TimeEntry) Running() bool {
	return e.EndTime == nil
}

// Duration returns the tracked duration, measured up to now for running entries.
func (e *TimeEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	if end.Before(e.StartTime) {
		return 0
	}
	return end.Sub(e.StartTime)
}

// Place is a geofenced location that can start and stop tracking.
type Place struct {
	ID              string
	Name            string
	Latitude        float64
	Longitude       float64
	RadiusMeters    float64
	GeofenceEnabled bool
	AutoStartTaskID string
	AutoStopOnExit  bool
	CreatedAt       time.Time
}

// EntryFilter is used to filter time entries in queries.
type EntryFilter struct {
	TaskID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailySummary represents aggregated time per task per day.
type DailySummary struct {
	Date         string
	TaskID       string
	TaskName     string
	TaskColor    string
	TotalSeconds int64
	EntryCount   int
}

// DayTotal is the tracked time on one calendar day.
type DayTotal struct {
	Date         string
	TotalSeconds int64
}

type Setting struct {
	Key   string
	Value string
}
