package schedule

import (
	"time"

	"alcyxob/training-calendar/internal/domain"
)

// WeekStart returns the Monday 00:00 UTC of the week containing date.
func WeekStart(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday has Sunday == 0; shift to Monday-based.
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DateForDay projects a Monday-indexed day number (1..7) onto the week
// starting at weekStart.
func DateForDay(weekStart time.Time, dayNumber int) time.Time {
	return weekStart.AddDate(0, 0, dayNumber-1)
}

// DayNumber returns the Monday-indexed weekday number (1..7) for a date.
func DayNumber(date time.Time) int {
	return (int(date.Weekday())+6)%7 + 1
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout, s, time.UTC)
}
