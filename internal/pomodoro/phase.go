// Package pomodoro implements the Pomodoro phase machine and a polling timer
// that drives it against a clock.
package pomodoro

import (
	"fmt"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

type PhaseKind int

const (
	Idle PhaseKind = iota
	Working
	ShortBreak
	LongBreak
)

var phaseNames = map[PhaseKind]string{
	Idle:       "IDLE",
	Working:    "WORK",
	ShortBreak: "SHORT BREAK",
	LongBreak:  "LONG BREAK",
}

func (k PhaseKind) String() string {
	return phaseNames[k]
}

// Phase is one segment of a Pomodoro cycle. Session and Total are meaningful
// for Working; Session holds the finished session number for ShortBreak.
type Phase struct {
	Kind    PhaseKind
	Session int
	Total   int
}

func IdlePhase() Phase { return Phase{Kind: Idle} }

func WorkingPhase(session, total int) Phase {
	return Phase{Kind: Working, Session: session, Total: total}
}

func ShortBreakPhase(afterSession int) Phase {
	return Phase{Kind: ShortBreak, Session: afterSession}
}

func LongBreakPhase() Phase { return Phase{Kind: LongBreak} }

// IsActive reports whether the phase is part of a running cycle.
func (p Phase) IsActive() bool {
	return p.Kind != Idle
}

func (p Phase) String() string {
	switch p.Kind {
	case Working:
		return fmt.Sprintf("working(%d/%d)", p.Session, p.Total)
	case ShortBreak:
		return fmt.Sprintf("shortBreak(after %d)", p.Session)
	case LongBreak:
		return "longBreak"
	default:
		return "idle"
	}
}

// Transition is the result of moving to a new phase.
type Transition struct {
	Phase     Phase
	Duration  time.Duration
	AutoStart bool
}

// sessions returns the cycle length, never less than one.
func sessions(s models.PomodoroSettings) int {
	if s.SessionsBeforeLongBreak < 1 {
		return 1
	}
	return s.SessionsBeforeLongBreak
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// Duration returns the full length of phase p under settings s.
func Duration(p Phase, s models.PomodoroSettings) time.Duration {
	switch p.Kind {
	case Working:
		return minutes(s.WorkMinutes)
	case ShortBreak:
		return minutes(s.ShortBreakMinutes)
	case LongBreak:
		return minutes(s.LongBreakMinutes)
	}
	return 0
}

// Start enters the first work session. The clock always runs, whatever the
// auto-start flags say.
func Start(s models.PomodoroSettings) Transition {
	p := WorkingPhase(1, sessions(s))
	return Transition{Phase: p, Duration: Duration(p, s), AutoStart: true}
}

// Next computes the phase that follows p. ok is false for Idle, which never
// advances on its own.
func Next(p Phase, s models.PomodoroSettings) (t Transition, ok bool) {
	var next Phase
	var auto bool
	switch p.Kind {
	case Working:
		if p.Session >= p.Total {
			next = LongBreakPhase()
		} else {
			next = ShortBreakPhase(p.Session)
		}
		auto = s.AutoStartBreaks
	case ShortBreak:
		next = WorkingPhase(p.Session+1, sessions(s))
		auto = s.AutoStartWork
	case LongBreak:
		next = WorkingPhase(1, sessions(s))
		auto = s.AutoStartWork
	default:
		return Transition{Phase: p}, false
	}
	return Transition{Phase: next, Duration: Duration(next, s), AutoStart: auto}, true
}

// Progress is the elapsed fraction of a phase, clamped to [0, 1].
func Progress(total, remaining time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	f := float64(total-remaining) / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// CompletionMessage is the notification shown when phase p runs out.
func CompletionMessage(p Phase) (title, body string) {
	switch p.Kind {
	case Working:
		if p.Session >= p.Total {
			return "Focus session complete", fmt.Sprintf("Session %d of %d done. Time for a long break.", p.Session, p.Total)
		}
		return "Focus session complete", fmt.Sprintf("Session %d of %d done. Take a short break.", p.Session, p.Total)
	case ShortBreak:
		return "Break is over", "Ready for the next focus session?"
	case LongBreak:
		return "Long break is over", "Start a fresh cycle when you're ready."
	}
	return "", ""
}
