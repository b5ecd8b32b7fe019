// Package tracker owns what is currently being tracked: the single running
// time entry, the Pomodoro cycle attached to it and the GPS trail recorded
// against it.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sadopc/tracklet/internal/clock"
	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

// Options wires a Tracker to its collaborators. Location, Widget and
// Pomodoro are optional.
type Options struct {
	Repo     Repository
	Pomodoro Pomodoro
	Location LocationService
	Widget   WidgetSink
	Clock    clock.Clock
	GPSTrail bool
}

// Tracker coordinates start, stop and switch so that at most one entry is
// running. Every method is safe for concurrent use; calls are serialized.
type Tracker struct {
	mu       sync.Mutex
	repo     Repository
	pomodoro Pomodoro
	location LocationService
	widget   WidgetSink
	clock    clock.Clock

	gpsTrail  bool
	active    *models.TimeEntry
	task      *models.Task
	orphans   []*models.TimeEntry
	lastError error
}

func New(opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Tracker{
		repo:     opts.Repo,
		pomodoro: opts.Pomodoro,
		location: opts.Location,
		widget:   opts.Widget,
		clock:    opts.Clock,
		gpsTrail: opts.GPSTrail,
	}
}

// StartTask stops whatever is running and starts a new entry for task.
func (t *Tracker) StartTask(ctx context.Context, task *models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTask(ctx, task)
}

// SwitchTask is StopCurrentEntry followed by StartTask.
func (t *Tracker) SwitchTask(ctx context.Context, task *models.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopCurrentEntry(ctx)
	t.startTask(ctx, task)
}

// StopCurrentEntry ends the running entry. It is a no-op when nothing runs
// and never overwrites an end time that is already set.
func (t *Tracker) StopCurrentEntry(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopCurrentEntry(ctx)
}

// StartTaskByID resolves id and starts it. Unknown ids are stale triggers:
// nothing changes and ErrTaskNotFound is recorded and returned.
func (t *Tracker) StartTaskByID(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, err := t.repo.GetTask(ctx, id)
	if errors.Is(err, models.ErrNotFound) || (err == nil && task == nil) {
		err = fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		t.record(err)
		return err
	}
	if err != nil {
		err = fmt.Errorf("resolve task %s: %w", id, err)
		t.record(err)
		return err
	}
	t.startTask(ctx, task)
	return nil
}

// StopTaskByID stops tracking only when the running entry belongs to id.
func (t *Tracker) StopTaskByID(ctx context.Context, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil || t.active.TaskID != id {
		logger.Debug("stop request for task that is not running", "task", id)
		return false
	}
	t.stopCurrentEntry(ctx)
	return true
}

// IsTracking reports whether the running entry belongs to taskID.
func (t *Tracker) IsTracking(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil && t.active.TaskID == taskID
}

// ActiveEntry returns a copy of the running entry, or nil.
func (t *Tracker) ActiveEntry() *models.TimeEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyEntry(t.active)
}

// ActiveTask returns a copy of the task of the running entry, or nil when
// nothing runs or the entry is orphaned.
func (t *Tracker) ActiveTask() *models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task == nil {
		return nil
	}
	task := *t.task
	return &task
}

// LastError returns the most recent non-fatal failure.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

func (t *Tracker) ClearLastError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastError = nil
}

func (t *Tracker) startTask(ctx context.Context, task *models.Task) {
	t.stopCurrentEntry(ctx)

	now := t.clock.Now()
	entry := &models.TimeEntry{
		ID:        models.NewID(),
		TaskID:    task.ID,
		StartTime: now,
		CreatedAt: now,
	}
	taskCopy := *task
	t.active = entry
	t.task = &taskCopy
	logger.Info("tracking started", "task", task.Name, "entry", entry.ID)

	t.publishActive()

	if task.PomodoroEnabled() && t.pomodoro != nil {
		t.pomodoro.Start(*task.Pomodoro)
	}
	if t.gpsTrail {
		t.startUpdates()
	}

	if err := t.repo.CreateEntry(ctx, copyEntry(entry)); err != nil {
		t.record(fmt.Errorf("%w: create entry: %w", ErrSaveFailed, err))
	}
}

func (t *Tracker) stopCurrentEntry(ctx context.Context) {
	entry := t.active
	if entry == nil {
		return
	}
	if entry.EndTime == nil {
		end := t.clock.Now()
		entry.EndTime = &end
	}
	t.active = nil
	t.task = nil

	if t.pomodoro != nil {
		t.pomodoro.Stop()
	}
	t.stopUpdates()
	if t.widget != nil {
		if err := t.widget.ClearActive(); err != nil {
			logger.Warn("clear widget state", "err", err)
		}
	}
	logger.Info("tracking stopped", "entry", entry.ID, "duration", entry.Duration(*entry.EndTime))

	err := t.repo.StopEntry(ctx, entry.ID, *entry.EndTime)
	switch {
	case errors.Is(err, models.ErrNotFound):
		t.record(fmt.Errorf("%w: %w: %s", ErrSaveFailed, ErrEntryNotFound, entry.ID))
	case err != nil:
		t.record(fmt.Errorf("%w: stop entry: %w", ErrSaveFailed, err))
	}
}

func (t *Tracker) publishActive() {
	if t.widget == nil || t.active == nil {
		return
	}
	payload := ActiveTask{TaskID: t.active.TaskID, StartTime: t.active.StartTime}
	if t.task != nil {
		payload.TaskName = t.task.Name
		payload.Color = t.task.Color
	}
	if err := t.widget.PublishActive(payload); err != nil {
		logger.Warn("publish widget state", "err", err)
	}
}

func (t *Tracker) record(err error) {
	t.lastError = err
	logger.Warn("tracker", "err", err)
}

func copyEntry(e *models.TimeEntry) *models.TimeEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.EndTime != nil {
		end := *e.EndTime
		c.EndTime = &end
	}
	c.Samples = append([]models.LocationSample(nil), e.Samples...)
	return &c
}
