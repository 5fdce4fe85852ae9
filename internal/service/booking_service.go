package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lernecken/internal/calendar"
	"lernecken/internal/domain"
	"lernecken/internal/events"
	"lernecken/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the write path for bookings.
type BookingService struct {
	store      domain.BookingStore
	quota      *QuotaService
	eventBus   domain.EventPublisher
	facilities map[string]bool
	clock      domain.Clock
	logger     *zerolog.Logger
}

func NewBookingService(
	store domain.BookingStore,
	quota *QuotaService,
	eventBus domain.EventPublisher,
	facilities []string,
	clock domain.Clock,
	logger *zerolog.Logger,
) *BookingService {
	if clock == nil {
		clock = domain.SystemClock
	}
	known := make(map[string]bool, len(facilities))
	for _, f := range facilities {
		known[f] = true
	}
	return &BookingService{
		store:      store,
		quota:      quota,
		eventBus:   eventBus,
		facilities: known,
		clock:      clock,
		logger:     logger,
	}
}

// KnownFacility reports whether code is one of the configured facilities.
func (s *BookingService) KnownFacility(code string) bool {
	return s.facilities[code]
}

func (s *BookingService) validate(user, facility string) error {
	if user == "" {
		return fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if facility == "" {
		return fmt.Errorf("%w: facility is required", domain.ErrValidation)
	}
	if !s.facilities[facility] {
		return fmt.Errorf("%w: %w %q", domain.ErrValidation, domain.ErrUnknownFacility, facility)
	}
	return nil
}

// Reserve books the slot at date for user. date is checked and stored in
// the local calendar whatever its location.
func (s *BookingService) Reserve(ctx context.Context, user, facility string, date time.Time) (*models.Booking, error) {
	if err := s.validate(user, facility); err != nil {
		return nil, err
	}

	date = date.In(time.Local)
	now := s.clock.Now()
	if calendar.LiesInPast(date, now) {
		return nil, domain.ErrPastSlot
	}
	if !calendar.IsBusinessHour(date) {
		return nil, domain.ErrInvalidTime
	}

	remaining, err := s.quota.Remaining(ctx, user, now)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, domain.ErrQuotaExceeded
	}

	booking := &models.Booking{
		User:      user,
		Facility:  facility,
		Date:      date,
		CreatedAt: now,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("user", user).
		Str("facility", facility).
		Time("date", date).
		Msg("Booking reserved")

	s.publishEvent(events.EventBookingReserved, booking)
	return booking, nil
}

// Cancel removes the user's own future booking at date.
func (s *BookingService) Cancel(ctx context.Context, user, facility string, date time.Time) (*models.Booking, error) {
	if err := s.validate(user, facility); err != nil {
		return nil, err
	}

	date = date.In(time.Local)
	booking, err := s.store.GetUserBooking(ctx, user, facility, date)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, domain.ErrNotFoundOrPast
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}

	if calendar.LiesInPast(booking.Date, s.clock.Now()) {
		return nil, domain.ErrNotFoundOrPast
	}

	if err := s.store.DeleteBooking(ctx, booking.ID); err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, domain.ErrNotFoundOrPast
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("user", user).
		Str("facility", facility).
		Time("date", booking.Date).
		Msg("Booking cancelled")

	s.publishEvent(events.EventBookingCancelled, booking)
	return booking, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		User:      booking.User,
		Facility:  booking.Facility,
		Date:      booking.Date,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
