// Package period builds the four-week booking horizon and classifies its
// hourly slots.
package period

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lernecken/internal/calendar"
	"lernecken/internal/domain"
	"lernecken/internal/models"
)

// BookingPeriod is the bookable horizon starting at the current booking week.
type BookingPeriod struct {
	Start time.Time
	Weeks []*Week
}

// Week holds the working days of one calendar week.
type Week struct {
	Start        time.Time
	CalendarWeek int
	Days         []*Day
}

// Day lazily loads and caches its slots. The first call to Slots decides
// the facility and viewer for the lifetime of the Day.
type Day struct {
	Date time.Time

	lookup domain.BookingLookup
	now    time.Time

	mu    sync.Mutex
	slots []Slot
}

// New constructs the period containing now.
func New(now time.Time, lookup domain.BookingLookup) *BookingPeriod {
	start := calendar.WeekStart(now)
	p := &BookingPeriod{Start: start, Weeks: make([]*Week, 0, models.NumWeeks)}
	for i := 0; i < models.NumWeeks; i++ {
		p.Weeks = append(p.Weeks, NewWeek(start.AddDate(0, 0, 7*i), now, lookup))
	}
	return p
}

// NewWeek builds a week from its Monday. start is not validated.
func NewWeek(start, now time.Time, lookup domain.BookingLookup) *Week {
	w := &Week{
		Start:        start,
		CalendarWeek: calendar.CalendarWeek(start),
		Days:         make([]*Day, 0, models.DaysPerWeek),
	}
	for i := 0; i < models.DaysPerWeek; i++ {
		w.Days = append(w.Days, NewDay(start.AddDate(0, 0, i), now, lookup))
	}
	return w
}

func NewDay(date, now time.Time, lookup domain.BookingLookup) *Day {
	return &Day{Date: calendar.StartOfDay(date), lookup: lookup, now: now}
}

// Slots returns the classified hours 08:00 to 18:00. Once computed the
// result is reused regardless of the arguments of later calls.
func (d *Day) Slots(ctx context.Context, facility, viewer string) ([]Slot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.slots != nil {
		return d.slots, nil
	}

	bookings, err := d.lookup.GetBookingsForDay(ctx, facility, d.Date)
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", d.Date.Format("2006-01-02"), err)
	}

	byHour := make(map[int]*models.Booking, len(bookings))
	for _, b := range bookings {
		byHour[b.Date.Hour()] = b
	}

	slots := make([]Slot, 0, models.SlotsPerDay)
	for hour := models.FirstBookingHour; hour <= models.LastBookingHour; hour++ {
		date := calendar.SlotTime(d.Date, hour)
		var booking *models.Booking
		if b, ok := byHour[hour]; ok && b.Date.Equal(date) {
			booking = b
		}
		slots = append(slots, newSlot(date, classify(booking, viewer), d.now))
	}

	d.slots = slots
	return d.slots, nil
}
