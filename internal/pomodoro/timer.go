package pomodoro

import (
	"sync"
	"time"

	"github.com/sadopc/tracklet/internal/clock"
	"github.com/sadopc/tracklet/internal/logger"
	"github.com/sadopc/tracklet/internal/models"
)

// DefaultPollInterval is how often a running phase is checked for completion.
const DefaultPollInterval = 500 * time.Millisecond

// Notifier schedules and cancels phase-end notifications.
type Notifier interface {
	ScheduleOneShot(after time.Duration, title, body string) error
	CancelAll()
}

// Completion describes a phase that ran out while the timer was polling.
type Completion struct {
	Finished Phase
	Next     Phase
	Waiting  bool
}

// Options configures a Timer.
type Options struct {
	Clock        clock.Clock
	Notifier     Notifier
	PollInterval time.Duration
	// OnComplete is the completion cue. It runs after the transition, outside
	// the timer's lock.
	OnComplete func(Completion)
}

// State is a point-in-time view of the timer.
type State struct {
	Phase         Phase
	PhaseEnd      *time.Time
	PhaseDuration time.Duration
	Remaining     time.Duration
	Progress      float64
	Waiting       bool
}

// Timer runs Pomodoro phases against wall-clock time. A phase with a nil end
// time and a non-idle phase is waiting for Resume.
type Timer struct {
	mu         sync.Mutex
	clock      clock.Clock
	notifier   Notifier
	poll       time.Duration
	onComplete func(Completion)

	settings models.PomodoroSettings
	phase    Phase
	duration time.Duration
	phaseEnd *time.Time
	stopPoll func()
}

// NewTimer returns an idle timer.
func NewTimer(opts Options) *Timer {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Timer{
		clock:      opts.Clock,
		notifier:   opts.Notifier,
		poll:       opts.PollInterval,
		onComplete: opts.OnComplete,
		phase:      IdlePhase(),
	}
}

// Start begins a fresh cycle at session one with the given settings. The
// settings are kept until the next Start.
func (t *Timer) Start(s models.PomodoroSettings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.settings = s
	t.cancelNotifications()
	t.enter(Start(s))
}

// Reset discards progress in the current cycle and starts over at session
// one with the settings of the last Start. An idle timer stays idle.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.phase.IsActive() {
		return
	}
	t.cancelNotifications()
	t.enter(Start(t.settings))
}

// Stop returns to idle and cancels pending notifications.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.phase.IsActive() && t.stopPoll == nil {
		return
	}
	t.stopClock()
	t.phase = IdlePhase()
	t.duration = 0
	t.cancelNotifications()
	logger.Debug("pomodoro stopped")
}

// Skip ends the current phase now and drops its notification. Idle is left
// alone.
func (t *Timer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.phase.IsActive() {
		return
	}
	t.cancelNotifications()
	t.advance()
}

// Resume starts the clock of a waiting phase with its full duration.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.waiting() {
		return
	}
	t.startClock()
}

// Check is the polling step: if the running phase has run out it advances
// as Skip would and fires the completion cue. The finished phase's
// notification is left to fire on its own.
func (t *Timer) Check() {
	t.mu.Lock()
	if t.phaseEnd == nil || t.clock.Now().Before(*t.phaseEnd) {
		t.mu.Unlock()
		return
	}
	finished := t.phase
	t.advance()
	c := Completion{Finished: finished, Next: t.phase, Waiting: t.waiting()}
	cue := t.onComplete
	t.mu.Unlock()

	logger.Info("pomodoro phase complete", "finished", finished, "next", c.Next, "waiting", c.Waiting)
	if cue != nil {
		cue(c)
	}
}

func (t *Timer) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *Timer) Settings() models.PomodoroSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// PhaseEndTime returns when the running phase ends, or nil when idle or waiting.
func (t *Timer) PhaseEndTime() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phaseEnd == nil {
		return nil
	}
	end := *t.phaseEnd
	return &end
}

func (t *Timer) IsWaiting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waiting()
}

func (t *Timer) TimeRemaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining()
}

func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.phase.IsActive() {
		return 0
	}
	return Progress(t.duration, t.remaining())
}

// Snapshot returns a consistent view of the whole timer.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := State{
		Phase:         t.phase,
		PhaseDuration: t.duration,
		Remaining:     t.remaining(),
		Waiting:       t.waiting(),
	}
	if t.phaseEnd != nil {
		end := *t.phaseEnd
		st.PhaseEnd = &end
	}
	if t.phase.IsActive() {
		st.Progress = Progress(t.duration, st.Remaining)
	}
	return st
}

func (t *Timer) waiting() bool {
	return t.phase.IsActive() && t.phaseEnd == nil
}

func (t *Timer) remaining() time.Duration {
	switch {
	case !t.phase.IsActive():
		return 0
	case t.phaseEnd == nil:
		return t.duration
	}
	r := t.phaseEnd.Sub(t.clock.Now())
	if r < 0 {
		return 0
	}
	return r
}

func (t *Timer) advance() {
	next, ok := Next(t.phase, t.settings)
	if !ok {
		return
	}
	t.enter(next)
}

// enter switches to tr.Phase, either with a running clock or waiting.
func (t *Timer) enter(tr Transition) {
	t.phase = tr.Phase
	t.duration = tr.Duration
	if tr.AutoStart {
		t.startClock()
		return
	}
	t.stopClock()
	logger.Debug("pomodoro waiting", "phase", t.phase)
}

func (t *Timer) startClock() {
	end := t.clock.Now().Add(t.duration)
	t.phaseEnd = &end
	if t.stopPoll == nil {
		t.stopPoll = clock.Every(t.clock, t.poll, t.Check)
	}
	if t.notifier != nil {
		title, body := CompletionMessage(t.phase)
		if err := t.notifier.ScheduleOneShot(t.duration, title, body); err != nil {
			logger.Debug("schedule phase notification", "err", err)
		}
	}
	logger.Debug("pomodoro phase started", "phase", t.phase, "ends", end)
}

func (t *Timer) stopClock() {
	t.phaseEnd = nil
	if t.stopPoll != nil {
		t.stopPoll()
		t.stopPoll = nil
	}
}

func (t *Timer) cancelNotifications() {
	if t.notifier != nil {
		t.notifier.CancelAll()
	}
}
