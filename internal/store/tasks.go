package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

const taskColumns = `t.id, t.name, t.color, t.favorite, t.archived, t.sort_order, t.created_at, t.updated_at,
	p.enabled, p.work_minutes, p.short_break_minutes, p.long_break_minutes,
	p.sessions_before_long_break, p.auto_start_breaks, p.auto_start_work`

const taskFrom = ` FROM tasks t LEFT JOIN pomodoro_settings p ON p.task_id = t.id`

// CreateTask inserts a task at the end of the sort order.
func (s *Store) CreateTask(ctx context.Context, name, color string) (*models.Task, error) {
	if color == "" {
		color = "#6C63FF"
	}
	now := formatTime(time.Now())
	id := models.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, name, color, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM tasks), ?, ?)`,
		id, name, color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// FindTaskByName looks a task up by its exact name.
func (s *Store) FindTaskByName(ctx context.Context, name string) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %q: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find task %q: %w", name, err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, includeArchived bool) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + taskFrom
	if !includeArchived {
		query += ` WHERE t.archived = 0`
	}
	query += ` ORDER BY t.sort_order, t.name`
	return s.queryTasks(ctx, query)
}

func (s *Store) FavoriteTasks(ctx context.Context) ([]*models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+taskFrom+
		` WHERE t.favorite = 1 AND t.archived = 0 ORDER BY t.sort_order, t.name`)
}

func (s *Store) UpdateTask(ctx context.Context, id, name, color string) error {
	return s.updateTask(ctx, id, `name = ?, color = ?`, name, color)
}

func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return s.updateTask(ctx, id, `favorite = ?`, boolInt(favorite))
}

func (s *Store) ArchiveTask(ctx context.Context, id string, archived bool) error {
	return s.updateTask(ctx, id, `archived = ?`, boolInt(archived))
}

func (s *Store) SetSortOrder(ctx context.Context, id string, order int) error {
	return s.updateTask(ctx, id, `sort_order = ?`, order)
}

// DeleteTask removes a task. Its entries stay, with no task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return requireRow(res, "task", id)
}

func (s *Store) updateTask(ctx context.Context, id, set string, args ...any) error {
	args = append(args, formatTime(time.Now()), id)
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return requireRow(res, "task", id)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var createdAt, updatedAt string
	var favorite, archived int
	var enabled, work, short, long, sessions, autoBreaks, autoWork sql.NullInt64
	err := row.Scan(&t.ID, &t.Name, &t.Color, &favorite, &archived, &t.SortOrder, &createdAt, &updatedAt,
		&enabled, &work, &short, &long, &sessions, &autoBreaks, &autoWork)
	if err != nil {
		return nil, err
	}
	t.Favorite = favorite == 1
	t.Archived = archived == 1
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	if enabled.Valid {
		t.Pomodoro = &models.PomodoroSettings{
			Enabled:                 enabled.Int64 == 1,
			WorkMinutes:             int(work.Int64),
			ShortBreakMinutes:       int(short.Int64),
			LongBreakMinutes:        int(long.Int64),
			SessionsBeforeLongBreak: int(sessions.Int64),
			AutoStartBreaks:         autoBreaks.Int64 == 1,
			AutoStartWork:           autoWork.Int64 == 1,
		}
	}
	return t, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}
