// Package notify schedules user-facing notifications and delivers them to
// one or more sinks.
package notify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/tracklet/internal/clock"
	"github.com/sadopc/tracklet/internal/logger"
)

var ErrNotPermitted = errors.New("notifications not permitted")

// Notification is one message for the user.
type Notification struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// Sink delivers notifications somewhere the user will see them.
type Sink interface {
	Deliver(n Notification) error
}

// Scheduler holds one-shot notifications until they are due. Delivery runs
// outside the scheduler's lock.
type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	sinks   []Sink
	enabled bool
	granted bool
	pending map[string]clock.Timer
}

// NewScheduler returns a scheduler delivering to sinks. When enabled is
// false every permission request is refused.
func NewScheduler(c clock.Clock, enabled bool, sinks ...Sink) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{
		clock:   c,
		sinks:   sinks,
		enabled: enabled,
		pending: make(map[string]clock.Timer),
	}
}

// RequestPermission grants delivery when notifications are enabled and at
// least one sink is configured.
func (s *Scheduler) RequestPermission() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = s.enabled && len(s.sinks) > 0
	logger.Debug("notification permission", "granted", s.granted)
	return s.granted
}

func (s *Scheduler) Granted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted
}

// ScheduleOneShot delivers title and body once after the given delay.
func (s *Scheduler) ScheduleOneShot(after time.Duration, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.granted {
		return ErrNotPermitted
	}
	n := Notification{
		ID:    uuid.NewString(),
		Title: title,
		Body:  body,
		At:    s.clock.Now().Add(after),
	}
	s.pending[n.ID] = s.clock.AfterFunc(after, func() { s.fire(n) })
	logger.Debug("notification scheduled", "id", n.ID, "at", n.At)
	return nil
}

// CancelAll drops every notification that has not fired yet.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

// Pending reports how many one-shots are waiting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Notify delivers right away.
func (s *Scheduler) Notify(title, body string) error {
	s.mu.Lock()
	if !s.granted {
		s.mu.Unlock()
		return ErrNotPermitted
	}
	n := Notification{ID: uuid.NewString(), Title: title, Body: body, At: s.clock.Now()}
	sinks := s.sinks
	s.mu.Unlock()
	return deliver(sinks, n)
}

func (s *Scheduler) fire(n Notification) {
	s.mu.Lock()
	if _, ok := s.pending[n.ID]; !ok {
		// Cancelled after the timer had already fired.
		s.mu.Unlock()
		return
	}
	delete(s.pending, n.ID)
	sinks := s.sinks
	s.mu.Unlock()

	if err := deliver(sinks, n); err != nil {
		logger.Warn("deliver notification", "id", n.ID, "err", err)
	}
}

func deliver(sinks []Sink, n Notification) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Deliver(n); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", sink, err))
		}
	}
	return errors.Join(errs...)
}
