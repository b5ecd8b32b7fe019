package tracker

import (
	"context"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

// Repository is the persistence the tracker needs. Lookups that match
// nothing return an error wrapping models.ErrNotFound.
type Repository interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// FavoriteTasks returns favorite, non-archived tasks by sort order.
	FavoriteTasks(ctx context.Context) ([]*models.Task, error)

	CreateEntry(ctx context.Context, e *models.TimeEntry) error
	// StopEntry sets the end time of an entry that does not have one yet.
	StopEntry(ctx context.Context, id string, end time.Time) error
	AppendSample(ctx context.Context, entryID string, s models.LocationSample) error
	// OpenEntries returns entries without an end time, newest start first.
	OpenEntries(ctx context.Context) ([]*models.TimeEntry, error)
}

// Pomodoro is the part of the Pomodoro timer the tracker drives.
type Pomodoro interface {
	Start(s models.PomodoroSettings)
	Stop()
}

// LocationService starts and stops GPS updates. StartUpdates fails when the
// user has not granted location access, and revoking access stops updates
// without a call to StopUpdates.
type LocationService interface {
	StartUpdates() error
	StopUpdates()
	Running() bool
}

// ActiveTask is the widget payload for the entry being tracked.
type ActiveTask struct {
	TaskID    string    `json:"task_id"`
	TaskName  string    `json:"task_name"`
	Color     string    `json:"color"`
	StartTime time.Time `json:"start_time"`
}

// FavoriteTask is a quick-start shortcut shown outside the main UI.
type FavoriteTask struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Color    string `json:"color"`
}

// MaxFavorites caps the favorites list pushed to the widget.
const MaxFavorites = 4

// WidgetSink receives tracking state for display outside the main UI.
type WidgetSink interface {
	PublishActive(a ActiveTask) error
	ClearActive() error
	PublishFavorites(f []FavoriteTask) error
}

type ActionKind string

const (
	ActionStart ActionKind = "start"
	ActionStop  ActionKind = "stop"
)

// Action is a start or stop request left by a widget or shortcut while the
// app was in the background.
type Action struct {
	Kind   ActionKind `json:"kind" yaml:"kind"`
	TaskID string     `json:"task_id" yaml:"task_id"`
}

// ActionSource hands out the pending action once and clears it.
type ActionSource interface {
	TakePendingAction() (*Action, error)
}
