package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

const dayLayout = "2006-01-02"

// maxStreakDays bounds how far back GoalStreak looks.
const maxStreakDays = 366

// GetDailySummary totals finished entries per UTC day and task in [from, to).
func (s *Store) GetDailySummary(ctx context.Context, from, to time.Time) ([]models.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(e.start_time, 1, 10) AS day, COALESCE(e.task_id, ''),
		       COALESCE(t.name, '(deleted task)'), COALESCE(t.color, '#888888'),
		       COALESCE(SUM(e.duration), 0), COUNT(*)
		FROM time_entries e
		LEFT JOIN tasks t ON t.id = e.task_id
		WHERE e.end_time IS NOT NULL
		  AND e.start_time >= ? AND e.start_time < ?
		GROUP BY day, e.task_id
		ORDER BY day, 3`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.DailySummary
	for rows.Next() {
		var ds models.DailySummary
		if err := rows.Scan(&ds.Date, &ds.TaskID, &ds.TaskName, &ds.TaskColor, &ds.TotalSeconds, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetDailyTotals totals finished entries per UTC day in [from, to). Days
// without entries are left out.
func (s *Store) GetDailyTotals(ctx context.Context, from, to time.Time) ([]models.DayTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(start_time, 1, 10) AS day, COALESCE(SUM(duration), 0)
		FROM time_entries
		WHERE end_time IS NOT NULL
		  AND start_time >= ? AND start_time < ?
		GROUP BY day
		ORDER BY day`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var totals []models.DayTotal
	for rows.Next() {
		var dt models.DayTotal
		if err := rows.Scan(&dt.Date, &dt.TotalSeconds); err != nil {
			return nil, err
		}
		totals = append(totals, dt)
	}
	return totals, rows.Err()
}

// GetDayTotal returns the seconds finished on the UTC day containing day.
func (s *Store) GetDayTotal(ctx context.Context, day time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(duration), 0)
		FROM time_entries
		WHERE substr(start_time, 1, 10) = ? AND end_time IS NOT NULL`,
		day.UTC().Format(dayLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("day total: %w", err)
	}
	return total, nil
}

// DailyGoal returns the daily goal in seconds.
func (s *Store) DailyGoal(ctx context.Context) (int64, error) {
	v, err := s.GetSetting(ctx, "daily_goal")
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	goal, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("daily_goal %q: %w", v, err)
	}
	return goal, nil
}

func (s *Store) SetDailyGoal(ctx context.Context, seconds int64) error {
	return s.SetSetting(ctx, "daily_goal", strconv.FormatInt(seconds, 10))
}

// GoalStreak counts consecutive days, ending at today, on which the tracked
// total reached goal. A today that has not reached the goal yet does not
// break the streak; counting then starts from yesterday.
func (s *Store) GoalStreak(ctx context.Context, today time.Time, goal int64) (int, error) {
	if goal <= 0 {
		return 0, nil
	}
	today = today.UTC()
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	totals, err := s.GetDailyTotals(ctx, dayStart.AddDate(0, 0, -maxStreakDays), dayStart.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	byDay := make(map[string]int64, len(totals))
	for _, dt := range totals {
		byDay[dt.Date] = dt.TotalSeconds
	}

	day := dayStart
	if byDay[day.Format(dayLayout)] < goal {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for streak < maxStreakDays && byDay[day.Format(dayLayout)] >= goal {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
