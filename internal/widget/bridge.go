// Package widget shares tracking state with out-of-process surfaces through
// a directory of JSON files, and takes start/stop requests back from them.
package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/tracker"
)

const (
	StateFile  = "state.json"
	ActionFile = "action.json"
)

// State is the content of state.json. Active is nil once tracking stops.
type State struct {
	Active    *tracker.ActiveTask    `json:"active"`
	Favorites []tracker.FavoriteTask `json:"favorites"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Bridge implements tracker.WidgetSink and tracker.ActionSource on top of a
// shared directory.
type Bridge struct {
	mu    sync.Mutex
	dir   string
	now   func() time.Time
	state State
}

// NewBridge creates dir if needed and picks up any state already there.
func NewBridge(dir string) (*Bridge, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create widget dir: %w", err)
	}
	b := &Bridge{dir: dir, now: time.Now}
	st, err := ReadState(dir)
	if err != nil {
		logger.Warn("ignoring unreadable widget state", "err", err)
	} else {
		b.state = st
	}
	return b, nil
}

func (b *Bridge) Dir() string { return b.dir }

func (b *Bridge) PublishActive(a tracker.ActiveTask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Active = &a
	return b.flush()
}

func (b *Bridge) ClearActive() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Active = nil
	return b.flush()
}

func (b *Bridge) PublishFavorites(f []tracker.FavoriteTask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Favorites = append([]tracker.FavoriteTask(nil), f...)
	return b.flush()
}

// State returns what was last published.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.state
	if st.Active != nil {
		a := *st.Active
		st.Active = &a
	}
	st.Favorites = append([]tracker.FavoriteTask(nil), st.Favorites...)
	return st
}

// TakePendingAction returns the queued action and removes it, or nil when
// nothing is queued. A malformed action file is removed too.
func (b *Bridge) TakePendingAction() (*tracker.Action, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := filepath.Join(b.dir, ActionFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending action: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("clear pending action: %w", err)
	}

	var a tracker.Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode pending action: %w", err)
	}
	return &a, nil
}

// Enqueue writes a pending action the way a widget tap would. A newer
// action replaces an older one that was never consumed.
func Enqueue(dir string, a tracker.Action) error {
	if a.Kind != tracker.ActionStart && a.Kind != tracker.ActionStop {
		return fmt.Errorf("unknown action %q", a.Kind)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create widget dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, ActionFile), a)
}

// ReadState reads state.json from dir. A missing file is an empty state.
func ReadState(dir string) (State, error) {
	var st State
	data, err := os.ReadFile(filepath.Join(dir, StateFile))
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read widget state: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decode widget state: %w", err)
	}
	return st, nil
}

func (b *Bridge) flush() error {
	b.state.UpdatedAt = b.now().UTC()
	if err := writeJSON(filepath.Join(b.dir, StateFile), b.state); err != nil {
		return err
	}
	logger.Debug("widget state written", "active", b.state.Active != nil, "favorites", len(b.state.Favorites))
	return nil
}

// writeJSON replaces path atomically so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
