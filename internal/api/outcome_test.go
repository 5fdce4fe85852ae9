package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lernecken/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeFromError(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{domain.ErrPastSlot, msgNotAllowed},
		{domain.ErrInvalidTime, msgNotAllowed},
		{fmt.Errorf("wrapped: %w", domain.ErrSlotTaken), msgNotAllowed},
		{domain.ErrQuotaExceeded, msgQuotaExceeded},
		{domain.ErrNotFoundOrPast, msgCancelNotAllowed},
	}
	for _, tt := range tests {
		o, ok := OutcomeFromError(tt.err)
		assert.True(t, ok, tt.err.Error())
		assert.Equal(t, OutcomeRed, o.Kind)
		assert.Equal(t, http.StatusForbidden, o.Status)
		assert.Equal(t, tt.message, o.Message)
	}

	_, ok := OutcomeFromError(errors.New("disk full"))
	assert.False(t, ok)
	_, ok = OutcomeFromError(domain.ErrValidation)
	assert.False(t, ok)
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "ok", outcomeLabel(nil))
	assert.Equal(t, "validation", outcomeLabel(fmt.Errorf("%w: user is required", domain.ErrValidation)))
	assert.Equal(t, "quota", outcomeLabel(domain.ErrQuotaExceeded))
	assert.Equal(t, "error", outcomeLabel(errors.New("boom")))
}
