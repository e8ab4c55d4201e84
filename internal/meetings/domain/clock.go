package domain

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wall-clock date format used for schedules.
	DateLayout = "2006-01-02"
	// ClockLayout is the wall-clock time-of-day format.
	ClockLayout = "15:04"
)

// ParseClock parses HH:MM into an offset from midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(value string) (time.Duration, error) {
	if value == "24:00" {
		return 24 * time.Hour, nil
	}
	parsed, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, use HH:MM: %w", value, err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

// AtClock returns the wall-clock time offset past midnight on day's date in
// day's location. Unlike day.Add, it is unaffected by DST transitions.
func AtClock(day time.Time, offset time.Duration) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, day.Location())
}

// FormatClock renders an offset from midnight as HH:MM.
func FormatClock(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset/time.Hour), int(offset%time.Hour/time.Minute))
}

// ParseDate parses a YYYY-MM-DD wall-clock date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", value, err)
	}
	return parsed, nil
}
