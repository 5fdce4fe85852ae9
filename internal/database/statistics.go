package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lernecken/internal/domain"
	"lernecken/internal/models"

	sq "github.com/Masterminds/squirrel"
)

func validateFacility(facility string) error {
	if strings.TrimSpace(facility) == "" {
		return fmt.Errorf("%w: facility must contain a value", domain.ErrValidation)
	}
	return nil
}

// GetOrCreateStatistic returns the bucket for the week, creating it with zero bookings.
func (db *DB) GetOrCreateStatistic(ctx context.Context, calendarWeek, year int, facility string) (*models.Statistic, error) {
	if err := validateFacility(facility); err != nil {
		return nil, err
	}

	_, err := db.exec(ctx, db.sb.Insert(tableStatistics).
		Columns("calendar_week", "year", "facility", "bookings").
		Values(calendarWeek, year, facility, 0).
		Suffix("ON CONFLICT (calendar_week, year, facility) DO NOTHING"))
	if err != nil {
		return nil, fmt.Errorf("create statistic: %w", err)
	}

	var stat models.Statistic
	err = db.get(ctx, &stat, db.sb.Select("id", "calendar_week", "year", "facility", "bookings").
		From(tableStatistics).
		Where(sq.Eq{"calendar_week": calendarWeek, "year": year, "facility": facility}))
	if err != nil {
		return nil, fmt.Errorf("get statistic: %w", err)
	}
	return &stat, nil
}

// SaveStatistic persists the booking count of an existing bucket.
func (db *DB) SaveStatistic(ctx context.Context, stat *models.Statistic) error {
	if err := validateFacility(stat.Facility); err != nil {
		return err
	}

	n, err := db.exec(ctx, db.sb.Update(tableStatistics).
		Set("bookings", stat.Bookings).
		Where(sq.Eq{"id": stat.ID}))
	if err != nil {
		return fmt.Errorf("save statistic: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save statistic %d: no such row", stat.ID)
	}
	return nil
}

// IncrementStatistic adds delta to the bucket in a single statement and
// returns the new count.
func (db *DB) IncrementStatistic(ctx context.Context, id int64, delta int) (int, error) {
	var count int
	err := db.get(ctx, &count, db.sb.Update(tableStatistics).
		Set("bookings", sq.Expr("bookings + ?", delta)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING bookings"))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("increment statistic %d: no such row", id)
	}
	if err != nil {
		return 0, fmt.Errorf("increment statistic: %w", err)
	}
	return count, nil
}

// ListStatistics returns every bucket, newest week first.
func (db *DB) ListStatistics(ctx context.Context) ([]*models.Statistic, error) {
	var stats []*models.Statistic
	err := db.selectRows(ctx, &stats, db.sb.Select("id", "calendar_week", "year", "facility", "bookings").
		From(tableStatistics).
		OrderBy("year DESC", "calendar_week DESC", "facility"))
	if err != nil {
		return nil, fmt.Errorf("list statistics: %w", err)
	}
	return stats, nil
}
