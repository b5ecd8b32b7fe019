// Package clock is the time source shared by the tracker, the Pomodoro
// timer and the notification scheduler. Tests swap in a Fake.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type (
	Clock = clockwork.Clock
	Timer = clockwork.Timer
	Fake  = clockwork.FakeClock
)

// Real returns the wall clock.
func Real() Clock {
	return clockwork.NewRealClock()
}

// NewFake returns a clock that only moves when advanced.
func NewFake(start time.Time) *Fake {
	return clockwork.NewFakeClockAt(start)
}

// Every calls fn on its own goroutine each time a tick of period d arrives,
// until stop is called. Ticks that arrive while fn runs are dropped.
func Every(c Clock, d time.Duration, fn func()) (stop func()) {
	ticker := c.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.Chan():
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
