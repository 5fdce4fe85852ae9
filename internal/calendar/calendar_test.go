package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday", date(2017, 2, 27, 9), date(2017, 2, 27, 0)},
		{"wednesday", date(2017, 3, 1, 15), date(2017, 2, 27, 0)},
		{"friday", date(2017, 3, 3, 18), date(2017, 2, 27, 0)},
		{"saturday rolls forward", date(2017, 3, 4, 10), date(2017, 3, 6, 0)},
		{"sunday rolls forward", date(2017, 3, 5, 23), date(2017, 3, 6, 0)},
		{"across year", date(2016, 12, 31, 12), date(2017, 1, 2, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.in)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCalendarWeek(t *testing.T) {
	assert.Equal(t, 5, CalendarWeek(date(2014, 1, 27, 0)))
	assert.Equal(t, 9, CalendarWeek(date(2017, 2, 27, 0)))
	assert.Equal(t, 9, CalendarWeek(date(2017, 3, 3, 0)))
	assert.Equal(t, 10, CalendarWeek(date(2017, 3, 6, 0)))
	assert.Equal(t, 10, CalendarWeek(date(2018, 3, 5, 0)))
	assert.Equal(t, 1, CalendarWeek(date(2019, 12, 30, 0)))
}

func TestCalendarWeekYearBoundary(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{date(2017, 1, 2, 0), 1},
		{date(2017, 12, 25, 0), 52},
		{date(2017, 1, 1, 0), 52},
		{date(2016, 1, 1, 0), 53},
		{date(2015, 12, 31, 0), 53},
		{date(2018, 12, 31, 0), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalendarWeek(tt.in), tt.in.Format("2006-01-02"))
	}
}

func TestIsBusinessHour(t *testing.T) {
	assert.True(t, IsBusinessHour(date(2030, 3, 1, 8)))
	assert.True(t, IsBusinessHour(date(2030, 3, 1, 18)))
	assert.False(t, IsBusinessHour(date(2030, 3, 1, 7)))
	assert.False(t, IsBusinessHour(date(2030, 3, 1, 19)))
	assert.False(t, IsBusinessHour(time.Date(2030, 3, 1, 11, 30, 0, 0, time.Local)))
	assert.False(t, IsBusinessHour(time.Date(2030, 3, 1, 11, 0, 5, 0, time.Local)))
	assert.False(t, IsBusinessHour(time.Date(2030, 3, 1, 11, 0, 0, 1, time.Local)))
}

func TestLiesInPast(t *testing.T) {
	now := time.Date(2030, 3, 1, 11, 25, 0, 0, time.Local)

	assert.True(t, LiesInPast(date(2030, 3, 1, 11), now), "current hour counts as past")
	assert.True(t, LiesInPast(date(2030, 3, 1, 10), now))
	assert.False(t, LiesInPast(date(2030, 3, 1, 12), now))
	assert.False(t, LiesInPast(date(2030, 3, 2, 8), now))
}

func TestSlotTime(t *testing.T) {
	day := time.Date(2030, 3, 1, 0, 0, 0, 0, time.Local)
	assert.True(t, SlotTime(day, 14).Equal(date(2030, 3, 1, 14)))
	assert.True(t, StartOfDay(date(2030, 3, 1, 14)).Equal(day))
	assert.True(t, TruncateToHour(time.Date(2030, 3, 1, 14, 59, 59, 9, time.Local)).Equal(date(2030, 3, 1, 14)))
}
