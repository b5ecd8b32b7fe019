package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

const entryColumns = `id, task_id, start_time, end_time, notes, created_at`

// CreateEntry inserts an entry built by the caller, id included.
func (s *Store) CreateEntry(ctx context.Context, e *models.TimeEntry) error {
	var end any
	var duration int64
	if e.EndTime != nil {
		end = formatTime(*e.EndTime)
		duration = int64(e.Duration(*e.EndTime).Seconds())
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = e.StartTime
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (id, task_id, start_time, end_time, duration, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, nullString(e.TaskID), formatTime(e.StartTime), end, duration, e.Notes, formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// StopEntry sets end and the stored duration. An entry that already has an
// end time keeps it.
func (s *Store) StopEntry(ctx context.Context, id string, end time.Time) error {
	var startStr string
	var endStr sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT start_time, end_time FROM time_entries WHERE id = ?`, id).
		Scan(&startStr, &endStr)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get entry start: %w", err)
	}
	if endStr.Valid {
		return nil
	}

	duration := int64(end.Sub(parseTime(startStr)).Seconds())
	if duration < 0 {
		duration = 0
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE time_entries SET end_time = ?, duration = ? WHERE id = ? AND end_time IS NULL`,
		formatTime(end), duration, id,
	)
	if err != nil {
		return fmt.Errorf("stop entry: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*models.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

// OpenEntries returns entries without an end time, newest start first.
func (s *Store) OpenEntries(ctx context.Context) ([]*models.TimeEntry, error) {
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE end_time IS NULL ORDER BY start_time DESC, id DESC`)
}

func (s *Store) UpdateEntryNotes(ctx context.Context, id, notes string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE time_entries SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update notes: %w", err)
	}
	return requireRow(res, "entry", id)
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, "entry", id)
}

func (s *Store) ListEntries(ctx context.Context, f models.EntryFilter) ([]*models.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE 1=1`
	var args []any

	if f.TaskID != "" {
		query += ` AND task_id = ?`
		args = append(args, f.TaskID)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY start_time DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	return s.queryEntries(ctx, query, args...)
}

// AppendSample adds a GPS fix to an entry's trail.
func (s *Store) AppendSample(ctx context.Context, entryID string, ls models.LocationSample) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO location_samples (entry_id, latitude, longitude, altitude, accuracy, speed, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entryID, ls.Latitude, ls.Longitude, ls.Altitude, ls.Accuracy, ls.Speed, formatTime(ls.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	return nil
}

// ListSamples returns an entry's trail in recording order.
func (s *Store) ListSamples(ctx context.Context, entryID string) ([]models.LocationSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT latitude, longitude, altitude, accuracy, speed, timestamp
		 FROM location_samples WHERE entry_id = ? ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var ls models.LocationSample
		var ts string
		if err := rows.Scan(&ls.Latitude, &ls.Longitude, &ls.Altitude, &ls.Accuracy, &ls.Speed, &ts); err != nil {
			return nil, err
		}
		ls.Timestamp = parseTime(ts)
		samples = append(samples, ls)
	}
	return samples, rows.Err()
}

// SampleCounts maps entry id to the number of recorded samples.
func (s *Store) SampleCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_id, COUNT(*) FROM location_samples GROUP BY entry_id`)
	if err != nil {
		return nil, fmt.Errorf("count samples: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]*models.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row scanner) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	var startTime, createdAt string
	var endTime, taskID sql.NullString
	if err := row.Scan(&e.ID, &taskID, &startTime, &endTime, &e.Notes, &createdAt); err != nil {
		return nil, err
	}
	e.TaskID = taskID.String
	e.StartTime = parseTime(startTime)
	e.EndTime = parseNullTime(endTime)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
