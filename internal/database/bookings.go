package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lernecken/internal/calendar"
	"lernecken/internal/domain"
	"lernecken/internal/models"

	sq "github.com/Masterminds/squirrel"
)

// deleteChunk keeps IN lists well below driver parameter limits.
const deleteChunk = 500

var bookingColumns = []string{"id", "username", "facility", "date", "created_at"}

type bookingRow struct {
	ID        int64  `db:"id"`
	User      string `db:"username"`
	Facility  string `db:"facility"`
	Date      string `db:"date"`
	CreatedAt string `db:"created_at"`
}

func (db *DB) toBooking(r bookingRow) (*models.Booking, error) {
	date, err := db.parseTime(r.Date)
	if err != nil {
		return nil, err
	}
	created, err := db.parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &models.Booking{
		ID:        r.ID,
		User:      r.User,
		Facility:  r.Facility,
		Date:      date,
		CreatedAt: created,
	}, nil
}

func (db *DB) toBookings(rows []bookingRow) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0, len(rows))
	for _, r := range rows {
		b, err := db.toBooking(r)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (db *DB) selectBookings() sq.SelectBuilder {
	return db.sb.Select(bookingColumns...).From(tableBookings)
}

func (db *DB) getOne(ctx context.Context, b sq.SelectBuilder) (*models.Booking, error) {
	var row bookingRow
	if err := db.get(ctx, &row, b.Limit(1)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return db.toBooking(row)
}

func (db *DB) getMany(ctx context.Context, b sq.SelectBuilder) ([]*models.Booking, error) {
	var rows []bookingRow
	if err := db.selectRows(ctx, &rows, b); err != nil {
		return nil, err
	}
	return db.toBookings(rows)
}

// GetBookingAt returns the booking occupying facility at date.
func (db *DB) GetBookingAt(ctx context.Context, facility string, date time.Time) (*models.Booking, error) {
	b, err := db.getOne(ctx, db.selectBookings().Where(sq.Eq{
		"facility": facility,
		"date":     db.formatTime(date),
	}))
	if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Errorf("get booking at: %w", err)
	}
	return b, err
}

// GetBookingsForDay returns all bookings of facility on the day of day.
func (db *DB) GetBookingsForDay(ctx context.Context, facility string, day time.Time) ([]*models.Booking, error) {
	start := calendar.StartOfDay(day)
	bookings, err := db.getMany(ctx, db.selectBookings().
		Where(sq.Eq{"facility": facility}).
		Where(sq.GtOrEq{"date": db.formatTime(start)}).
		Where(sq.Lt{"date": db.formatTime(start.AddDate(0, 0, 1))}).
		OrderBy("date"))
	if err != nil {
		return nil, fmt.Errorf("get bookings for day: %w", err)
	}
	return bookings, nil
}

// GetUserBooking finds the booking of user at facility and date.
func (db *DB) GetUserBooking(ctx context.Context, user, facility string, date time.Time) (*models.Booking, error) {
	b, err := db.getOne(ctx, db.selectBookings().Where(sq.Eq{
		"username": user,
		"facility": facility,
		"date":     db.formatTime(date),
	}))
	if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Errorf("get user booking: %w", err)
	}
	return b, err
}

// GetUserBookingsFrom returns bookings of user at or after from across all facilities.
func (db *DB) GetUserBookingsFrom(ctx context.Context, user string, from time.Time) ([]*models.Booking, error) {
	bookings, err := db.getMany(ctx, db.selectBookings().
		Where(sq.Eq{"username": user}).
		Where(sq.GtOrEq{"date": db.formatTime(from)}).
		OrderBy("date"))
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}
	return bookings, nil
}

// CountUserBookingsFrom counts what GetUserBookingsFrom would return.
func (db *DB) CountUserBookingsFrom(ctx context.Context, user string, from time.Time) (int, error) {
	var count int
	err := db.get(ctx, &count, db.sb.Select("COUNT(*)").From(tableBookings).
		Where(sq.Eq{"username": user}).
		Where(sq.GtOrEq{"date": db.formatTime(from)}))
	if err != nil {
		return 0, fmt.Errorf("count user bookings: %w", err)
	}
	return count, nil
}

// GetBookingsUpTo returns every booking dated at or before threshold.
func (db *DB) GetBookingsUpTo(ctx context.Context, threshold time.Time) ([]*models.Booking, error) {
	bookings, err := db.getMany(ctx, db.selectBookings().
		Where(sq.LtOrEq{"date": db.formatTime(threshold)}).
		OrderBy("date", "facility"))
	if err != nil {
		return nil, fmt.Errorf("get bookings up to: %w", err)
	}
	return bookings, nil
}

// CreateBooking inserts booking and sets its ID. A taken slot yields domain.ErrSlotTaken.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	query, args, err := db.sb.Insert(tableBookings).
		Columns("username", "facility", "date", "created_at").
		Values(booking.User, booking.Facility, db.formatTime(booking.Date), db.formatTime(booking.CreatedAt)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := db.ext.QueryRowxContext(ctx, query, args...).Scan(&booking.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// DeleteBooking removes one booking by id.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	n, err := db.exec(ctx, db.sb.Delete(tableBookings).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// DeleteBookings removes the given ids and returns the number of rows removed.
func (db *DB) DeleteBookings(ctx context.Context, ids []int64) (int64, error) {
	var total int64
	for start := 0; start < len(ids); start += deleteChunk {
		end := start + deleteChunk
		if end > len(ids) {
			end = len(ids)
		}
		n, err := db.exec(ctx, db.sb.Delete(tableBookings).Where(sq.Eq{"id": ids[start:end]}))
		if err != nil {
			return total, fmt.Errorf("delete bookings: %w", err)
		}
		total += n
	}
	return total, nil
}
