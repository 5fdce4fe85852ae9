package service

import (
	"context"
	"fmt"
	"time"

	"lernecken/internal/domain"
	"lernecken/internal/events"

	"github.com/rs/zerolog"
)

// RetentionService retires expired bookings into statistics.
type RetentionService struct {
	storage        domain.Storage
	stats          *StatisticsService
	eventBus       domain.EventPublisher
	expirationDays int
	logger         *zerolog.Logger
}

func NewRetentionService(
	storage domain.Storage,
	stats *StatisticsService,
	eventBus domain.EventPublisher,
	expirationDays int,
	logger *zerolog.Logger,
) *RetentionService {
	return &RetentionService{
		storage:        storage,
		stats:          stats,
		eventBus:       eventBus,
		expirationDays: expirationDays,
		logger:         logger,
	}
}

// Threshold is the newest booking date removed by a run at now.
func (s *RetentionService) Threshold(now time.Time) time.Time {
	return now.AddDate(0, 0, -(s.expirationDays + 1))
}

// Run accumulates and deletes every booking dated at or before Threshold(now)
// in a single transaction and returns how many were removed.
func (s *RetentionService) Run(ctx context.Context, now time.Time) (int, error) {
	threshold := s.Threshold(now)

	var removed, buckets int
	err := s.storage.WithinTx(ctx, func(ctx context.Context, tx domain.Storage) error {
		bookings, err := tx.GetBookingsUpTo(ctx, threshold)
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}

		if buckets, err = s.stats.Accumulate(ctx, tx, bookings); err != nil {
			return err
		}

		ids := make([]int64, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.ID)
		}
		n, err := tx.DeleteBookings(ctx, ids)
		if err != nil {
			return err
		}
		if int(n) != len(ids) {
			return fmt.Errorf("deleted %d of %d expired bookings", n, len(ids))
		}

		removed = len(bookings)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("retention: %w", err)
	}

	s.logger.Info().
		Time("threshold", threshold).
		Int("removed", removed).
		Int("buckets", buckets).
		Msg("Retention completed")

	if s.eventBus != nil {
		payload := events.RetentionEventPayload{Threshold: threshold, Removed: removed, Buckets: buckets}
		if err := s.eventBus.PublishJSON(events.EventRetentionCompleted, payload); err != nil {
			s.logger.Error().Err(err).Msg("publish retention event error")
		}
	}

	return removed, nil
}
