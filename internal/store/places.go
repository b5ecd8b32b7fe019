package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

const placeColumns = `id, name, latitude, longitude, radius_meters, geofence_enabled,
	auto_start_task_id, auto_stop_on_exit, created_at`

// CreatePlace inserts p and fills in its id and creation time.
func (s *Store) CreatePlace(ctx context.Context, p *models.Place) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	if p.RadiusMeters <= 0 {
		p.RadiusMeters = 100
	}
	p.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO places (`+placeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Latitude, p.Longitude, p.RadiusMeters, boolInt(p.GeofenceEnabled),
		nullString(p.AutoStartTaskID), boolInt(p.AutoStopOnExit), formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert place: %w", err)
	}
	return nil
}

func (s *Store) GetPlace(ctx context.Context, id string) (*models.Place, error) {
	p, err := scanPlace(s.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get place %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get place %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListPlaces(ctx context.Context) ([]*models.Place, error) {
	return s.queryPlaces(ctx, `SELECT `+placeColumns+` FROM places ORDER BY name`)
}

// GeofencePlaces returns the places whose geofence is enabled.
func (s *Store) GeofencePlaces(ctx context.Context) ([]*models.Place, error) {
	return s.queryPlaces(ctx, `SELECT `+placeColumns+` FROM places WHERE geofence_enabled = 1 ORDER BY name`)
}

func (s *Store) UpdatePlace(ctx context.Context, p *models.Place) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE places SET name = ?, latitude = ?, longitude = ?, radius_meters = ?, geofence_enabled = ?,
		     auto_start_task_id = ?, auto_stop_on_exit = ?
		 WHERE id = ?`,
		p.Name, p.Latitude, p.Longitude, p.RadiusMeters, boolInt(p.GeofenceEnabled),
		nullString(p.AutoStartTaskID), boolInt(p.AutoStopOnExit), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return requireRow(res, "place", p.ID)
}

func (s *Store) SetGeofenceEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE places SET geofence_enabled = ? WHERE id = ?`, boolInt(enabled), id)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return requireRow(res, "place", id)
}

func (s *Store) DeletePlace(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return requireRow(res, "place", id)
}

func (s *Store) queryPlaces(ctx context.Context, query string, args ...any) ([]*models.Place, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer rows.Close()

	var places []*models.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func scanPlace(row scanner) (*models.Place, error) {
	p := &models.Place{}
	var enabled, autoStop int
	var taskID sql.NullString
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.RadiusMeters, &enabled,
		&taskID, &autoStop, &createdAt)
	if err != nil {
		return nil, err
	}
	p.GeofenceEnabled = enabled == 1
	p.AutoStartTaskID = taskID.String
	p.AutoStopOnExit = autoStop == 1
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}
