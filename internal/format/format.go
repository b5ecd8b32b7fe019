// Package format renders elapsed time for people.
package format

import (
	"fmt"
	"time"
)

// Duration renders d as "45s", "2m 5s" or "1h 23m". Seconds are dropped once
// the duration reaches an hour.
func Duration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Seconds is Duration for a whole number of seconds.
func Seconds(secs int64) string {
	return Duration(time.Duration(secs) * time.Second)
}

// Clock renders a countdown as MM:SS.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	// Round up so a countdown shows 00:01 until the last second has passed.
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// HMS renders elapsed time as HH:MM:SS.
func HMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Hours renders seconds as fractional hours, e.g. "1.5h".
func Hours(secs int64) string {
	return fmt.Sprintf("%.1fh", float64(secs)/3600)
}
