package service

import (
	"context"
	"fmt"
	"time"

	"lernecken/internal/calendar"
	"lernecken/internal/domain"
)

// QuotaCounter counts bookings of a user from a point in time on.
type QuotaCounter interface {
	CountUserBookingsFrom(ctx context.Context, user string, from time.Time) (int, error)
}

// QuotaService computes how many bookings a user has left. Bookings from
// the start of the current booking week on count against the quota, in
// every facility and without an upper date bound.
type QuotaService struct {
	store QuotaCounter
	quota int
}

func NewQuotaService(store QuotaCounter, quota int) *QuotaService {
	return &QuotaService{store: store, quota: quota}
}

// Quota returns the configured per-user quota.
func (s *QuotaService) Quota() int {
	return s.quota
}

// Remaining returns quota minus the user's bookings since WeekStart(asOf).
func (s *QuotaService) Remaining(ctx context.Context, user string, asOf time.Time) (int, error) {
	if user == "" {
		return 0, fmt.Errorf("%w: user is required", domain.ErrValidation)
	}

	count, err := s.store.CountUserBookingsFrom(ctx, user, calendar.WeekStart(asOf))
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return s.quota - count, nil
}
