package period

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lernecken/internal/models"
)

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) GetBookingsForDay(ctx context.Context, facility string, day time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, facility, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func TestNewPeriod(t *testing.T) {
	now := time.Date(2017, 3, 1, 10, 30, 0, 0, time.Local)
	p := New(now, &MockLookup{})

	assert.True(t, p.Start.Equal(at(2017, 2, 27, 0)))
	require.Len(t, p.Weeks, models.NumWeeks)

	for i, w := range p.Weeks {
		assert.True(t, w.Start.Equal(at(2017, 2, 27, 0).AddDate(0, 0, 7*i)))
		assert.Equal(t, 9+i, w.CalendarWeek)
		require.Len(t, w.Days, models.DaysPerWeek)
		assert.Equal(t, time.Monday, w.Days[0].Date.Weekday())
		assert.Equal(t, time.Friday, w.Days[4].Date.Weekday())
	}
}

func TestNewPeriodOnWeekend(t *testing.T) {
	now := at(2017, 3, 4, 12)
	p := New(now, &MockLookup{})

	assert.True(t, p.Start.Equal(at(2017, 3, 6, 0)))
	assert.Equal(t, 10, p.Weeks[0].CalendarWeek)
}

func TestDaySlotsClassification(t *testing.T) {
	ctx := context.Background()
	now := at(2030, 3, 1, 9)
	lookup := &MockLookup{}
	day := NewDay(at(2030, 3, 1, 0), now, lookup)

	lookup.On("GetBookingsForDay", ctx, "g", day.Date).Return([]*models.Booking{
		{ID: 1, User: "max", Facility: "g", Date: at(2030, 3, 1, 11)},
		{ID: 2, User: "erika", Facility: "g", Date: at(2030, 3, 1, 14)},
	}, nil).Once()

	slots, err := day.Slots(ctx, "g", "max")
	require.NoError(t, err)
	require.Len(t, slots, models.SlotsPerDay)

	assert.True(t, slots[0].Date.Equal(at(2030, 3, 1, 8)))
	assert.True(t, slots[10].Date.Equal(at(2030, 3, 1, 18)))

	assert.Equal(t, SlotReserved, slots[3].Kind)
	assert.Equal(t, "Reserviert", slots[3].Text)
	assert.Equal(t, SlotBooked, slots[6].Kind)
	assert.Equal(t, "Belegt", slots[6].Text)
	assert.Equal(t, SlotAvailable, slots[0].Kind)

	assert.False(t, slots[0].Bookable, "08:00 is before now")
	assert.False(t, slots[1].Bookable, "09:00 equals now")
	assert.True(t, slots[2].Bookable)
	assert.Equal(t, at(2030, 3, 1, 8).Unix(), slots[0].Timestamp)

	lookup.AssertExpectations(t)
}

func TestDaySlotsCached(t *testing.T) {
	ctx := context.Background()
	lookup := &MockLookup{}
	day := NewDay(at(2030, 3, 1, 0), at(2030, 2, 1, 9), lookup)

	lookup.On("GetBookingsForDay", ctx, "g", day.Date).Return([]*models.Booking{
		{ID: 1, User: "max", Facility: "g", Date: at(2030, 3, 1, 8)},
	}, nil).Once()

	first, err := day.Slots(ctx, "g", "max")
	require.NoError(t, err)

	second, err := day.Slots(ctx, "h", "erika")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, SlotReserved, second[0].Kind)
	lookup.AssertNumberOfCalls(t, "GetBookingsForDay", 1)
}

func TestDaySlotsErrorNotCached(t *testing.T) {
	ctx := context.Background()
	lookup := &MockLookup{}
	day := NewDay(at(2030, 3, 1, 0), at(2030, 2, 1, 9), lookup)

	lookup.On("GetBookingsForDay", ctx, "g", day.Date).Return(nil, errors.New("db down")).Once()
	lookup.On("GetBookingsForDay", ctx, "g", day.Date).Return([]*models.Booking{}, nil).Once()

	_, err := day.Slots(ctx, "g", "max")
	require.Error(t, err)

	slots, err := day.Slots(ctx, "g", "max")
	require.NoError(t, err)
	assert.Len(t, slots, models.SlotsPerDay)
}

func TestAnonymousViewerSeesBooked(t *testing.T) {
	ctx := context.Background()
	lookup := &MockLookup{}
	day := NewDay(at(2030, 3, 1, 0), at(2030, 2, 1, 9), lookup)
	lookup.On("GetBookingsForDay", ctx, "h", day.Date).Return([]*models.Booking{
		{ID: 1, User: "max", Facility: "h", Date: at(2030, 3, 1, 8)},
	}, nil)

	slots, err := day.Slots(ctx, "h", "")
	require.NoError(t, err)
	assert.Equal(t, SlotBooked, slots[0].Kind)
}

func TestWeekView(t *testing.T) {
	ctx := context.Background()
	now := at(2017, 3, 1, 10)
	lookup := &MockLookup{}
	week := NewWeek(at(2017, 2, 27, 0), now, lookup)

	lookup.On("GetBookingsForDay", ctx, "g", week.Days[2].Date).Return([]*models.Booking{
		{ID: 7, User: "erika", Facility: "g", Date: at(2017, 3, 1, 12)},
	}, nil)
	lookup.On("GetBookingsForDay", ctx, "g", mock.Anything).Return([]*models.Booking{}, nil)

	view, err := NewWeekView(ctx, week, "g", "max")
	require.NoError(t, err)

	assert.Equal(t, 9, view.CalendarWeek)
	require.Len(t, view.Headers, 5)
	assert.Equal(t, Header{Name: "Montag", Date: "27.02.17"}, view.Headers[0])
	assert.Equal(t, Header{Name: "Mittwoch", Date: "01.03.17", IsToday: true}, view.Headers[2])
	assert.Equal(t, "Freitag", view.Headers[4].Name)

	require.Len(t, view.Rows, models.SlotsPerDay)
	assert.Equal(t, "08:00", view.Rows[0].TimeStart)
	assert.Equal(t, "09:00", view.Rows[0].TimeEnd)
	assert.Equal(t, "18:00", view.Rows[10].TimeStart)
	assert.Equal(t, "19:00", view.Rows[10].TimeEnd)
	require.Len(t, view.Rows[4].Blocks, 5)
	assert.Equal(t, SlotBooked, view.Rows[4].Blocks[2].Kind)
	assert.Equal(t, SlotAvailable, view.Rows[4].Blocks[1].Kind)
}

func TestSlotKindText(t *testing.T) {
	raw, err := SlotReserved.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "reserved", string(raw))
	assert.Equal(t, "available", SlotAvailable.String())
	assert.Equal(t, "Block reservieren?", SlotAvailable.Text())
}
