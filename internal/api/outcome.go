package api

import (
	"errors"
	"net/http"
	"time"

	"lernecken/internal/domain"
)

// OutcomeKind is the alert colour shown to the user after a write.
type OutcomeKind string

const (
	OutcomeOk    OutcomeKind = "ok"
	OutcomeGreen OutcomeKind = "green"
	OutcomeRed   OutcomeKind = "red"
)

const outcomeTimeLayout = "02.01.06, 15:04"

const (
	msgNotAllowed       = "Buchung nicht möglich"
	msgCancelNotAllowed = "Stornieren nicht möglich: liegt in der Vergangenheit"
	msgQuotaExceeded    = "Buchungskontingent reicht nicht aus"
)

type Outcome struct {
	Kind    OutcomeKind `json:"kind"`
	Message string      `json:"message,omitempty"`
	Status  int         `json:"-"`
}

func OkOutcome() Outcome {
	return Outcome{Kind: OutcomeOk, Status: http.StatusOK}
}

func ReservedOutcome(date time.Time) Outcome {
	return Outcome{Kind: OutcomeGreen, Message: "Gebucht: " + date.Format(outcomeTimeLayout) + " Uhr", Status: http.StatusOK}
}

func CancelledOutcome(date time.Time) Outcome {
	return Outcome{Kind: OutcomeGreen, Message: "Buchung storniert: " + date.Format(outcomeTimeLayout) + " Uhr", Status: http.StatusOK}
}

func redOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeRed, Message: message, Status: http.StatusForbidden}
}

// OutcomeFromError maps a rejected write to its Red outcome.
// ok is false for errors that are not business rejections.
func OutcomeFromError(err error) (Outcome, bool) {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		return redOutcome(msgQuotaExceeded), true
	case errors.Is(err, domain.ErrNotFoundOrPast):
		return redOutcome(msgCancelNotAllowed), true
	case errors.Is(err, domain.ErrPastSlot),
		errors.Is(err, domain.ErrInvalidTime),
		errors.Is(err, domain.ErrSlotTaken):
		return redOutcome(msgNotAllowed), true
	}
	return Outcome{}, false
}

// outcomeLabel is the metrics label for a write result.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrPastSlot):
		return "past"
	case errors.Is(err, domain.ErrInvalidTime):
		return "invalid_time"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrSlotTaken):
		return "taken"
	case errors.Is(err, domain.ErrNotFoundOrPast):
		return "not_found"
	default:
		return "error"
	}
}
