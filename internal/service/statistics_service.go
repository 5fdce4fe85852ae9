package service

import (
	"context"
	"fmt"

	"lernecken/internal/calendar"
	"lernecken/internal/domain"
	"lernecken/internal/models"

	"github.com/rs/zerolog"
)

// StatisticsService folds retiring bookings into weekly counters.
type StatisticsService struct {
	store     domain.StatisticStore
	publisher domain.StatisticsPublisher
	logger    *zerolog.Logger
}

func NewStatisticsService(store domain.StatisticStore, publisher domain.StatisticsPublisher, logger *zerolog.Logger) *StatisticsService {
	return &StatisticsService{store: store, publisher: publisher, logger: logger}
}

// Accumulate adds one to the (week, year, facility) bucket of every booking.
// Writes go through store, so passing a transaction makes them part of it.
// It returns the number of distinct buckets touched.
func (s *StatisticsService) Accumulate(ctx context.Context, store domain.StatisticStore, bookings []*models.Booking) (int, error) {
	touched := make(map[int64]bool)
	for _, b := range bookings {
		stat, err := store.GetOrCreateStatistic(ctx, calendar.CalendarWeek(b.Date), b.Date.Year(), b.Facility)
		if err != nil {
			return len(touched), fmt.Errorf("accumulate booking %d: %w", b.ID, err)
		}

		if _, err := store.IncrementStatistic(ctx, stat.ID, 1); err != nil {
			return len(touched), fmt.Errorf("accumulate booking %d: %w", b.ID, err)
		}
		touched[stat.ID] = true
	}
	return len(touched), nil
}

// List returns all accumulated statistics.
func (s *StatisticsService) List(ctx context.Context) ([]*models.Statistic, error) {
	return s.store.ListStatistics(ctx)
}

// Publish pushes the current statistics to the configured publisher, if any.
func (s *StatisticsService) Publish(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}

	stats, err := s.store.ListStatistics(ctx)
	if err != nil {
		return err
	}
	if err := s.publisher.ReplaceStatistics(ctx, stats); err != nil {
		return fmt.Errorf("publish statistics: %w", err)
	}

	s.logger.Info().Int("rows", len(stats)).Msg("Statistics published")
	return nil
}
