// Package engine wires the store, tracker, Pomodoro timer, location feed,
// geofences, notifications and widget bridge into one running instance.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/tracklet/internal/clock"
	"github.com/sadopc/tracklet/internal/export"
	"github.com/sadopc/tracklet/internal/geofence"
	"github.com/sadopc/tracklet/internal/location"
	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
	"github.com/sadopc/tracklet/internal/notify"
	"github.com/sadopc/tracklet/internal/pomodoro"
	"github.com/sadopc/tracklet/internal/store"
	"github.com/sadopc/tracklet/internal/tracker"
	"github.com/sadopc/tracklet/internal/widget"
)

// Config selects the collaborators of an Engine. Zero values disable the
// optional parts.
type Config struct {
	DBPath             string
	WidgetDir          string
	GPSTrail           bool
	LocationAuthorized bool
	PollInterval       time.Duration

	Notifications bool
	// Bell receives a terminal bell line per notification when set.
	Bell          io.Writer
	WebhookURL    string
	WebhookSecret string
	TrayLockfile  string
	// Cues, when positive, buffers notifications and Pomodoro completions
	// for a UI loop.
	Cues int

	Clock clock.Clock
}

// Engine owns every long-lived component. Components only reach each other
// through the interfaces they declare, so each keeps its own lock.
type Engine struct {
	Store     *store.Store
	Clock     clock.Clock
	Timer     *pomodoro.Timer
	Scheduler *notify.Scheduler
	Feed      *location.Feed
	Monitor   *location.Monitor
	Tracker   *tracker.Tracker
	Geofences *geofence.Manager
	Widget    *widget.Bridge

	// Notifications and Completions are nil unless Config.Cues is set.
	Notifications <-chan notify.Notification
	Completions   <-chan pomodoro.Completion
}

// New opens the store and builds the engine around it. Nothing is restored
// yet; call Restore once the caller is ready to receive callbacks.
func New(cfg Config) (*Engine, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	e := &Engine{Store: s, Clock: cfg.Clock}

	var sinks []notify.Sink
	if cfg.Bell != nil {
		sinks = append(sinks, notify.BellSink{W: cfg.Bell})
	}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, &notify.WebhookSink{URL: cfg.WebhookURL, Secret: cfg.WebhookSecret})
	}
	if cfg.TrayLockfile != "" {
		sinks = append(sinks, &notify.TraySink{Lockfile: cfg.TrayLockfile})
	}

	var completions chan pomodoro.Completion
	if cfg.Cues > 0 {
		ch := notify.NewChanSink(cfg.Cues)
		sinks = append(sinks, ch)
		e.Notifications = ch.C
		completions = make(chan pomodoro.Completion, cfg.Cues)
		e.Completions = completions
	}

	e.Scheduler = notify.NewScheduler(cfg.Clock, cfg.Notifications, sinks...)
	if !e.Scheduler.RequestPermission() {
		logger.Debug("notifications not granted", "enabled", cfg.Notifications, "sinks", len(sinks))
	}

	e.Timer = pomodoro.NewTimer(pomodoro.Options{
		Clock:        cfg.Clock,
		Notifier:     e.Scheduler,
		PollInterval: cfg.PollInterval,
		OnComplete: func(c pomodoro.Completion) {
			if completions == nil {
				return
			}
			select {
			case completions <- c:
			default:
			}
		},
	})

	e.Feed = location.NewFeed(cfg.LocationAuthorized)
	e.Monitor = location.NewMonitor()

	var sink tracker.WidgetSink
	if cfg.WidgetDir != "" {
		b, err := widget.NewBridge(cfg.WidgetDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		e.Widget = b
		sink = b
	}

	e.Tracker = tracker.New(tracker.Options{
		Repo:     s,
		Pomodoro: e.Timer,
		Location: e.Feed,
		Widget:   sink,
		Clock:    cfg.Clock,
		GPSTrail: cfg.GPSTrail,
	})
	e.Geofences = geofence.NewManager(e.Tracker, s, e.Scheduler)
	return e, nil
}

// Restore brings back the running entry, registers geofences, applies a
// pending widget action and republishes favorites.
func (e *Engine) Restore(ctx context.Context) error {
	e.Tracker.LoadActiveEntry(ctx)
	if err := e.ReloadPlaces(ctx); err != nil {
		return err
	}
	if e.Widget != nil {
		if err := e.Tracker.ConsumePendingAction(ctx, e.Widget); err != nil {
			logger.Warn("pending widget action", "err", err)
		}
	}
	if _, err := e.Tracker.PublishFavorites(ctx); err != nil {
		logger.Warn("publish favorites", "err", err)
	}
	return nil
}

// ReloadPlaces re-reads geofenced places into the manager and the monitor.
func (e *Engine) ReloadPlaces(ctx context.Context) error {
	places, err := e.Geofences.Reload(ctx)
	if err != nil {
		return err
	}
	e.Monitor.SetRegions(places)
	return nil
}

// Poll applies a widget action queued since the last call.
func (e *Engine) Poll(ctx context.Context) {
	if e.Widget == nil {
		return
	}
	if err := e.Tracker.ConsumePendingAction(ctx, e.Widget); err != nil {
		logger.Warn("pending widget action", "err", err)
	}
}

// Replay feeds a recorded trail through region monitoring and, while a
// trail is being recorded, into the running entry.
func (e *Engine) Replay(ctx context.Context, samples []models.LocationSample, delay time.Duration) error {
	return e.Feed.Replay(ctx, samples, location.ReplayOptions{
		Monitor: e.Monitor,
		OnRegion: func(ev location.RegionEvent) {
			kind := geofence.Exit
			if ev.Entered {
				kind = geofence.Enter
			}
			e.Geofences.HandleEvent(ctx, geofence.Event{RegionID: ev.RegionID, Kind: kind})
		},
		OnSample: func(s models.LocationSample) {
			e.Tracker.HandleLocationUpdate(ctx, s)
		},
		Delay: delay,
	})
}

// ResolveTask finds a task by id or, failing that, by exact name.
func (e *Engine) ResolveTask(ctx context.Context, ref string) (*models.Task, error) {
	t, err := e.Store.GetTask(ctx, ref)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	t, err = e.Store.FindTaskByName(ctx, ref)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("task %q: %w", ref, models.ErrNotFound)
	}
	return t, err
}

// Export writes the entries matching filter as "csv" or "json" to path and
// returns how many were written.
func (e *Engine) Export(ctx context.Context, filter models.EntryFilter, format, path string) (int, error) {
	entries, err := e.Store.ListEntries(ctx, filter)
	if err != nil {
		return 0, err
	}
	tasks, err := e.Store.ListTasks(ctx, true)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	samples, err := e.Store.SampleCounts(ctx)
	if err != nil {
		return 0, err
	}

	switch format {
	case "csv":
		err = export.ToCSV(entries, byID, samples, path)
	case "json":
		err = export.ToJSON(entries, byID, samples, path)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Close stops timers and pending notifications and closes the store.
func (e *Engine) Close() error {
	e.Timer.Stop()
	e.Scheduler.CancelAll()
	e.Feed.StopUpdates()
	return e.Store.Close()
}
