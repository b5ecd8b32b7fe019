package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

// memRepo implements Repository using in-memory maps.
type memRepo struct {
	tasks   map[string]*models.Task
	entries map[string]*models.TimeEntry
	samples map[string][]models.LocationSample

	failWrites bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		tasks:   make(map[string]*models.Task),
		entries: make(map[string]*models.TimeEntry),
		samples: make(map[string][]models.LocationSample),
	}
}

var errDiskFull = errors.New("disk full")

func (m *memRepo) addTask(task *models.Task) *models.Task {
	m.tasks[task.ID] = task
	return task
}

func (m *memRepo) GetTask(_ context.Context, id string) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	c := *t
	return &c, nil
}

func (m *memRepo) FavoriteTasks(_ context.Context) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.Favorite && !t.Archived {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *memRepo) CreateEntry(_ context.Context, e *models.TimeEntry) error {
	if m.failWrites {
		return errDiskFull
	}
	c := *e
	m.entries[e.ID] = &c
	return nil
}

func (m *memRepo) StopEntry(_ context.Context, id string, end time.Time) error {
	if m.failWrites {
		return errDiskFull
	}
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, models.ErrNotFound)
	}
	if e.EndTime == nil {
		e.EndTime = &end
	}
	return nil
}

func (m *memRepo) AppendSample(_ context.Context, entryID string, s models.LocationSample) error {
	if m.failWrites {
		return errDiskFull
	}
	m.samples[entryID] = append(m.samples[entryID], s)
	return nil
}

func (m *memRepo) OpenEntries(_ context.Context) ([]*models.TimeEntry, error) {
	var out []*models.TimeEntry
	for _, e := range m.entries {
		if e.EndTime == nil {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memRepo) openCount() int {
	n := 0
	for _, e := range m.entries {
		if e.EndTime == nil {
			n++
		}
	}
	return n
}

type fakeWidget struct {
	active    *ActiveTask
	cleared   int
	favorites []FavoriteTask
}

func (w *fakeWidget) PublishActive(a ActiveTask) error {
	w.active = &a
	return nil
}

func (w *fakeWidget) ClearActive() error {
	w.active = nil
	w.cleared++
	return nil
}

func (w *fakeWidget) PublishFavorites(f []FavoriteTask) error {
	w.favorites = f
	return nil
}

type fakeLocation struct {
	denied   bool
	updating bool
	starts   int
}

func (l *fakeLocation) StartUpdates() error {
	if l.denied {
		return errors.New("denied")
	}
	l.updating = true
	l.starts++
	return nil
}

func (l *fakeLocation) StopUpdates() { l.updating = false }

func (l *fakeLocation) Running() bool { return l.updating }

// revoke mimics the user withdrawing access while updates run.
func (l *fakeLocation) revoke() {
	l.denied = true
	l.updating = false
}

type fakeActions struct {
	pending *Action
	err     error
}

func (a *fakeActions) TakePendingAction() (*Action, error) {
	p := a.pending
	a.pending = nil
	return p, a.err
}
