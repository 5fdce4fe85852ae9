package models

import "time"

// Booking is a single reserved hour of a facility.
type Booking struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Facility  string    `json:"facility"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// EndsAt returns the end of the booked hour.
func (b *Booking) EndsAt() time.Time {
	return b.Date.Add(time.Hour)
}

// Statistic counts retired bookings of one facility in one calendar week.
type Statistic struct {
	ID           int64  `json:"id" db:"id"`
	CalendarWeek int    `json:"calendar_week" db:"calendar_week"`
	Year         int    `json:"year" db:"year"`
	Facility     string `json:"facility" db:"facility"`
	Bookings     int    `json:"bookings" db:"bookings"`
}

// Facility describes a bookable room.
type Facility struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}
