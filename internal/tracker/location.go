package tracker

import (
	"context"
	"fmt"

	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

// MaxSampleAccuracy is the horizontal accuracy, in meters, at and above
// which a GPS fix is treated as noise.
const MaxSampleAccuracy = 100.0

// HandleLocationUpdate appends an accurate sample to the running entry's
// trail. Samples are dropped when trail recording is off, when nothing runs,
// or when the accuracy is outside [0, MaxSampleAccuracy).
func (t *Tracker) HandleLocationUpdate(ctx context.Context, s models.LocationSample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.gpsTrail || t.active == nil {
		return
	}
	if s.Accuracy < 0 || s.Accuracy >= MaxSampleAccuracy {
		logger.Debug("discarding noisy sample", "accuracy", s.Accuracy)
		return
	}
	t.active.Samples = append(t.active.Samples, s)
	if err := t.repo.AppendSample(ctx, t.active.ID, s); err != nil {
		t.record(fmt.Errorf("%w: append sample: %w", ErrSaveFailed, err))
	}
}

// SetGPSTrailEnabled turns trail recording on or off, starting or stopping
// location updates for an entry that is already running.
func (t *Tracker) SetGPSTrailEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gpsTrail = enabled
	switch {
	case enabled && t.active != nil:
		t.startUpdates()
	case !enabled:
		t.stopUpdates()
	}
}

func (t *Tracker) GPSTrailEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gpsTrail
}

// The feed can stop on its own when access is revoked, so its state is
// asked for rather than remembered.
func (t *Tracker) startUpdates() {
	if t.location == nil || t.location.Running() {
		return
	}
	if err := t.location.StartUpdates(); err != nil {
		t.record(fmt.Errorf("%w: %w", ErrLocationNotAuthorized, err))
	}
}

func (t *Tracker) stopUpdates() {
	if t.location == nil || !t.location.Running() {
		return
	}
	t.location.StopUpdates()
}
