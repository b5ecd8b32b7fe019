package store

import (
	"context"
	"fmt"

	"github.com/sadopc/tracklet/internal/models"
)

// SavePomodoroSettings stores the Pomodoro configuration of a task.
func (s *Store) SavePomodoroSettings(ctx context.Context, taskID string, p models.PomodoroSettings) error {
	ok, err := s.exists(ctx, "tasks", taskID)
	if err != nil {
		return fmt.Errorf("save pomodoro settings: %w", err)
	}
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pomodoro_settings (task_id, enabled, work_minutes, short_break_minutes, long_break_minutes,
		     sessions_before_long_break, auto_start_breaks, auto_start_work)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
		     enabled = excluded.enabled,
		     work_minutes = excluded.work_minutes,
		     short_break_minutes = excluded.short_break_minutes,
		     long_break_minutes = excluded.long_break_minutes,
		     sessions_before_long_break = excluded.sessions_before_long_break,
		     auto_start_breaks = excluded.auto_start_breaks,
		     auto_start_work = excluded.auto_start_work`,
		taskID, boolInt(p.Enabled), p.WorkMinutes, p.ShortBreakMinutes, p.LongBreakMinutes,
		p.SessionsBeforeLongBreak, boolInt(p.AutoStartBreaks), boolInt(p.AutoStartWork),
	)
	if err != nil {
		return fmt.Errorf("save pomodoro settings: %w", err)
	}
	return nil
}

// ClearPomodoroSettings removes a task's Pomodoro configuration.
func (s *Store) ClearPomodoroSettings(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pomodoro_settings WHERE task_id = ?`, taskID)
	return err
}
