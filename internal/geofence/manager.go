// Package geofence turns region enter and exit events into start and stop
// calls against the tracker.
package geofence

import (
	"context"
	"fmt"
	"sync"

	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

// TaskController is the slice of the tracker a geofence may drive.
type TaskController interface {
	StartTaskByID(ctx context.Context, id string) error
	StopCurrentEntry(ctx context.Context)
}

// PlaceSource lists the places with geofencing enabled.
type PlaceSource interface {
	GeofencePlaces(ctx context.Context) ([]*models.Place, error)
}

// Notifier delivers a message to the user right away.
type Notifier interface {
	Notify(title, body string) error
}

type EventKind int

const (
	Enter EventKind = iota
	Exit
)

func (k EventKind) String() string {
	if k == Enter {
		return "enter"
	}
	return "exit"
}

// Event is a region crossing. RegionID is the place id.
type Event struct {
	RegionID string
	Kind     EventKind
}

// Manager remembers at most one place that auto-started tracking, so that
// only leaving that place can auto-stop it.
type Manager struct {
	mu       sync.Mutex
	tasks    TaskController
	places   PlaceSource
	notifier Notifier

	byID   map[string]*models.Place
	active string
}

func NewManager(tasks TaskController, places PlaceSource, notifier Notifier) *Manager {
	return &Manager{
		tasks:    tasks,
		places:   places,
		notifier: notifier,
		byID:     make(map[string]*models.Place),
	}
}

// Reload refreshes the registered places and returns them. A remembered
// place that is no longer registered is forgotten.
func (m *Manager) Reload(ctx context.Context) ([]*models.Place, error) {
	places, err := m.places.GeofencePlaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("load geofence places: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[string]*models.Place, len(places))
	for _, p := range places {
		m.byID[p.ID] = p
	}
	if _, ok := m.byID[m.active]; !ok {
		m.active = ""
	}
	logger.Debug("geofence places loaded", "count", len(places))
	return places, nil
}

// ActivePlaceID is the place that auto-started the running entry, or "".
func (m *Manager) ActivePlaceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case Enter:
		m.HandleEnter(ctx, ev.RegionID)
	case Exit:
		m.HandleExit(ctx, ev.RegionID)
	}
}

// HandleEnter starts the place's auto-start task, if it has one.
func (m *Manager) HandleEnter(ctx context.Context, regionID string) {
	m.mu.Lock()
	place, ok := m.byID[regionID]
	if !ok || place.AutoStartTaskID == "" {
		m.mu.Unlock()
		return
	}
	if err := m.tasks.StartTaskByID(ctx, place.AutoStartTaskID); err != nil {
		m.mu.Unlock()
		logger.Warn("geofence auto-start skipped", "place", place.Name, "task", place.AutoStartTaskID, "err", err)
		return
	}
	m.active = place.ID
	name := place.Name
	m.mu.Unlock()

	logger.Info("geofence auto-start", "place", name)
	m.notify("Arrived at "+name, "Tracking started automatically.")
}

// HandleExit stops tracking only when regionID is the place that started it
// and that place asks for auto-stop.
func (m *Manager) HandleExit(ctx context.Context, regionID string) {
	m.mu.Lock()
	if regionID == "" || regionID != m.active {
		m.mu.Unlock()
		return
	}
	place, ok := m.byID[regionID]
	if !ok || !place.AutoStopOnExit {
		m.mu.Unlock()
		return
	}
	m.tasks.StopCurrentEntry(ctx)
	m.active = ""
	name := place.Name
	m.mu.Unlock()

	logger.Info("geofence auto-stop", "place", name)
	m.notify("Left "+name, "Tracking stopped automatically.")
}

func (m *Manager) notify(title, body string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(title, body); err != nil {
		logger.Debug("geofence notification", "err", err)
	}
}
