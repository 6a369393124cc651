package attendance

import (
	"math"
	"time"
)

const msPerHour = 3_600_000.0

func hoursBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / msPerHour
}

// HoursWorked is clocked time minus completed breaks, in hours at full
// precision. It is zero until both clock-in and clock-out are set. Breaks
// without an end are excluded. The result is not clamped and may be negative
// when breaks overlap or fall outside the session.
func HoursWorked(s Session, breaks []Break) float64 {
	if s.ClockIn == nil || s.ClockOut == nil {
		return 0
	}
	hours := hoursBetween(*s.ClockIn, *s.ClockOut)
	for _, b := range breaks {
		if b.EndedAt == nil {
			continue
		}
		hours -= hoursBetween(b.StartedAt, *b.EndedAt)
	}
	return hours
}

// SessionHours is HoursWorked over the session's own breaks, rejecting
// sessions whose breaks exceed the clocked time.
func SessionHours(s Session) (float64, error) {
	hours := HoursWorked(s, s.Breaks)
	if hours < 0 {
		return 0, ErrInconsistentBreaks
	}
	return hours, nil
}

// DailyOvertime is the excess of hours over threshold, never negative.
func DailyOvertime(hours, threshold float64) float64 {
	return math.Max(0, hours-threshold)
}

// RoundHours rounds to two decimals for display.
func RoundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}
