package period

import (
	"time"

	"lernecken/internal/models"
)

// SlotKind classifies an hourly slot relative to a viewer.
type SlotKind int

const (
	SlotAvailable SlotKind = iota
	SlotBooked
	SlotReserved
)

func (k SlotKind) String() string {
	switch k {
	case SlotBooked:
		return "booked"
	case SlotReserved:
		return "reserved"
	default:
		return "available"
	}
}

// Text is the caption shown on the slot.
func (k SlotKind) Text() string {
	switch k {
	case SlotBooked:
		return "Belegt"
	case SlotReserved:
		return "Reserviert"
	default:
		return "Block reservieren?"
	}
}

// MarshalText renders the kind as its label.
func (k SlotKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Slot is one hour of one day for one facility, seen by one viewer.
type Slot struct {
	Date      time.Time `json:"date"`
	Timestamp int64     `json:"timestamp"`
	Kind      SlotKind  `json:"kind"`
	Text      string    `json:"text"`
	Bookable  bool      `json:"bookable"`
}

func newSlot(date time.Time, kind SlotKind, now time.Time) Slot {
	return Slot{
		Date:      date,
		Timestamp: date.Unix(),
		Kind:      kind,
		Text:      kind.Text(),
		Bookable:  date.After(now),
	}
}

func classify(b *models.Booking, viewer string) SlotKind {
	switch {
	case b == nil:
		return SlotAvailable
	case viewer != "" && b.User == viewer:
		return SlotReserved
	default:
		return SlotBooked
	}
}
