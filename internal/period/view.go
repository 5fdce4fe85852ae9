package period

import (
	"context"
	"fmt"
	"time"

	"lernecken/internal/models"
)

var dayNames = [...]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag"}

// Header describes one day column.
type Header struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	IsToday bool   `json:"is_today"`
}

// Row is one hour across the working days of a week.
type Row struct {
	TimeStart string `json:"time_start"`
	TimeEnd   string `json:"time_end"`
	Blocks    []Slot `json:"blocks"`
}

// WeekView lays a week out as table rows.
type WeekView struct {
	CalendarWeek int      `json:"calendar_week"`
	Headers      []Header `json:"headers"`
	Rows         []Row    `json:"rows"`
}

// NewWeekView classifies every day of w for facility and viewer.
func NewWeekView(ctx context.Context, w *Week, facility, viewer string) (*WeekView, error) {
	view := &WeekView{
		CalendarWeek: w.CalendarWeek,
		Headers:      make([]Header, 0, len(w.Days)),
		Rows:         make([]Row, models.SlotsPerDay),
	}

	columns := make([][]Slot, 0, len(w.Days))
	for _, day := range w.Days {
		slots, err := day.Slots(ctx, facility, viewer)
		if err != nil {
			return nil, err
		}
		columns = append(columns, slots)

		view.Headers = append(view.Headers, Header{
			Name:    dayNames[(int(day.Date.Weekday())+6)%7],
			Date:    day.Date.Format("02.01.06"),
			IsToday: sameDay(day.Date, day.now),
		})
	}

	for i := range view.Rows {
		hour := models.FirstBookingHour + i
		row := Row{
			TimeStart: fmt.Sprintf("%02d:00", hour),
			TimeEnd:   fmt.Sprintf("%02d:00", hour+1),
			Blocks:    make([]Slot, 0, len(columns)),
		}
		for _, col := range columns {
			row.Blocks = append(row.Blocks, col[i])
		}
		view.Rows[i] = row
	}

	return view, nil
}

// Views builds a WeekView for every week of the period.
func (p *BookingPeriod) Views(ctx context.Context, facility, viewer string) ([]*WeekView, error) {
	views := make([]*WeekView, 0, len(p.Weeks))
	for _, w := range p.Weeks {
		v, err := NewWeekView(ctx, w, facility, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
