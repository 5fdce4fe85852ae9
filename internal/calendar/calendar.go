// Package calendar holds the date arithmetic shared by the booking engine.
package calendar

import (
	"time"

	"lernecken/internal/models"
)

// WeekStart returns midnight of the Monday the booking week of t starts on.
// Saturdays and Sundays roll forward to the following Monday.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	switch wd := day.Weekday(); wd {
	case time.Saturday:
		return day.AddDate(0, 0, 2)
	case time.Sunday:
		return day.AddDate(0, 0, 1)
	default:
		return day.AddDate(0, 0, -int(wd-time.Monday))
	}
}

// CalendarWeek returns the ISO-8601 week number of t.
func CalendarWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// IsBusinessHour reports whether t is a full hour inside the bookable window.
func IsBusinessHour(t time.Time) bool {
	if t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return false
	}
	return t.Hour() >= models.FirstBookingHour && t.Hour() <= models.LastBookingHour
}

// LiesInPast reports whether t is at or before the current hour.
func LiesInPast(t, now time.Time) bool {
	return !t.After(TruncateToHour(now))
}

// TruncateToHour drops minutes and below in t's own location.
func TruncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// SlotTime returns the start of the given hour on day.
func SlotTime(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// StartOfDay returns midnight of t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
