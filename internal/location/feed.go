// Package location provides the location collaborator: a feed of GPS
// samples gated by authorization, region monitoring for places, and replay
// of recorded trails.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

var ErrNotAuthorized = errors.New("location access not authorized")

// Feed gates continuous location updates. Samples only flow to subscribers
// between StartUpdates and StopUpdates.
type Feed struct {
	mu         sync.Mutex
	authorized bool
	running    bool
}

func NewFeed(authorized bool) *Feed {
	return &Feed{authorized: authorized}
}

// Authorize records the outcome of a permission prompt. Revoking access
// stops updates.
func (f *Feed) Authorize(granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized = granted
	if !granted {
		f.running = false
	}
}

func (f *Feed) Authorized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized
}

func (f *Feed) StartUpdates() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.authorized {
		return ErrNotAuthorized
	}
	if !f.running {
		logger.Debug("location updates started")
	}
	f.running = true
	return nil
}

func (f *Feed) StopUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		logger.Debug("location updates stopped")
	}
	f.running = false
}

func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// ReplayOptions wires a replay to its consumers. All fields are optional.
type ReplayOptions struct {
	// Monitor turns each sample into region crossings. Region monitoring
	// does not depend on StartUpdates.
	Monitor  *Monitor
	OnSample func(models.LocationSample)
	OnRegion func(RegionEvent)
	// Delay between samples; zero replays as fast as possible.
	Delay time.Duration
}

// Replay feeds recorded samples through the monitor and, while updates are
// running, to OnSample. Region events for a sample are delivered before the
// sample itself.
func (f *Feed) Replay(ctx context.Context, samples []models.LocationSample, opts ReplayOptions) error {
	for i, s := range samples {
		if i > 0 && opts.Delay > 0 {
			timer := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if opts.Monitor != nil && opts.OnRegion != nil {
			for _, ev := range opts.Monitor.Update(s) {
				opts.OnRegion(ev)
			}
		}
		if opts.OnSample != nil && f.Running() {
			opts.OnSample(s)
		}
	}
	return nil
}
