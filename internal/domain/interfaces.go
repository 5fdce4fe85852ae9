package domain

import (
	"context"
	"time"

	"lernecken/internal/models"
)

// BookingLookup is the read side used by day views.
type BookingLookup interface {
	GetBookingsForDay(ctx context.Context, facility string, day time.Time) ([]*models.Booking, error)
}

type BookingStore interface {
	BookingLookup
	GetBookingAt(ctx context.Context, facility string, date time.Time) (*models.Booking, error)
	GetUserBooking(ctx context.Context, user, facility string, date time.Time) (*models.Booking, error)
	GetUserBookingsFrom(ctx context.Context, user string, from time.Time) ([]*models.Booking, error)
	CountUserBookingsFrom(ctx context.Context, user string, from time.Time) (int, error)
	GetBookingsUpTo(ctx context.Context, threshold time.Time) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
	DeleteBookings(ctx context.Context, ids []int64) (int64, error)
}

type StatisticStore interface {
	GetOrCreateStatistic(ctx context.Context, calendarWeek, year int, facility string) (*models.Statistic, error)
	SaveStatistic(ctx context.Context, stat *models.Statistic) error
	IncrementStatistic(ctx context.Context, id int64, delta int) (int, error)
	ListStatistics(ctx context.Context) ([]*models.Statistic, error)
}

// Storage is the full persistence surface. WithinTx runs fn against a
// transactional view and commits only when fn returns nil.
type Storage interface {
	BookingStore
	StatisticStore
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
	Ping(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Locker guards jobs that must run on one instance at a time.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

type StatisticsPublisher interface {
	ReplaceStatistics(ctx context.Context, stats []*models.Statistic) error
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock.
var SystemClock = ClockFunc(time.Now)
