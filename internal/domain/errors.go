package domain

import "errors"

var (
	ErrInvalidTime     = errors.New("time must be a full hour between 08:00 and 18:00")
	ErrPastSlot        = errors.New("slot lies in the past")
	ErrQuotaExceeded   = errors.New("booking quota exceeded")
	ErrSlotTaken       = errors.New("slot is already booked")
	ErrNotFoundOrPast  = errors.New("booking not found or already in the past")
	ErrValidation      = errors.New("validation failed")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUnknownFacility = errors.New("unknown facility")
)
