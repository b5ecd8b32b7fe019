package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

// LoadActiveEntry restores the running entry after a relaunch. The newest
// open entry wins; older open entries are left as they are and reported by
// OrphanedEntries. A Pomodoro-enabled task restarts its cycle at session one.
//
// An entry already active in memory is kept, since memory is authoritative
// over a store that may have missed a write.
func (t *Tracker) LoadActiveEntry(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.publishActive()
		return
	}

	open, err := t.repo.OpenEntries(ctx)
	if err != nil {
		t.record(fmt.Errorf("load open entries: %w", err))
		return
	}
	if len(open) == 0 {
		t.orphans = nil
		if t.widget != nil {
			if err := t.widget.ClearActive(); err != nil {
				logger.Warn("clear widget state", "err", err)
			}
		}
		return
	}

	entry := open[0]
	t.orphans = open[1:]
	for _, o := range t.orphans {
		logger.Warn("open entry left behind by an earlier run", "entry", o.ID, "started", o.StartTime)
	}

	var task *models.Task
	if entry.TaskID != "" {
		task, err = t.repo.GetTask(ctx, entry.TaskID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				err = fmt.Errorf("%w: %s", ErrTaskNotFound, entry.TaskID)
			}
			t.record(err)
			task = nil
		}
	}

	t.active = copyEntry(entry)
	t.task = task
	logger.Info("recovered running entry", "entry", entry.ID, "started", entry.StartTime)

	t.publishActive()
	if task.PomodoroEnabled() && t.pomodoro != nil {
		t.pomodoro.Start(*task.Pomodoro)
	}
	if t.gpsTrail {
		t.startUpdates()
	}
}

// OrphanedEntries returns open entries found during recovery that were not
// made active.
func (t *Tracker) OrphanedEntries() []*models.TimeEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*models.TimeEntry, 0, len(t.orphans))
	for _, o := range t.orphans {
		out = append(out, copyEntry(o))
	}
	return out
}
