package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lernecken/internal/domain"
	"lernecken/internal/export"
	"lernecken/internal/metrics"
	"lernecken/internal/models"
	"lernecken/internal/period"

	"github.com/gorilla/mux"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Storage.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleFacilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"facilities": s.booking.Facilities})
}

func (s *HTTPServer) handlePeriod(w http.ResponseWriter, r *http.Request) {
	facility := facilityFrom(r)
	viewer := s.viewer(r)
	now := s.deps.Clock.Now()

	p := period.New(now, s.deps.Lookup)
	views, err := p.Views(r.Context(), facility.Code, viewer)
	if err != nil {
		s.internalError(w, err, "build period view")
		return
	}

	resp := map[string]any{
		"outcome":  OkOutcome(),
		"facility": facility,
		"start":    p.Start,
		"weeks":    views,
	}
	if viewer != "" {
		remaining, err := s.deps.Quota.Remaining(r.Context(), viewer, now)
		if err != nil {
			s.internalError(w, err, "compute quota")
			return
		}
		resp["quota"] = remaining
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	facility := facilityFrom(r)
	p := period.New(s.deps.Clock.Now(), s.deps.Lookup)

	view, err := period.NewWeekView(r.Context(), p.Weeks[0], facility.Code, "")
	if err != nil {
		s.internalError(w, err, "build status view")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facility": facility, "week": view})
}

type reserveRequest struct {
	Timestamp int64 `json:"timestamp"`
}

func (s *HTTPServer) handleReserve(w http.ResponseWriter, r *http.Request) {
	facility := facilityFrom(r)
	user := s.viewer(r)

	var body reserveRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil || body.Timestamp <= 0 {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.allowAttempt(r.Context(), user) {
		metrics.IncBooking("reserve", facility.Code, "rate_limited")
		writeError(w, http.StatusTooManyRequests, "too many booking attempts")
		return
	}

	booking, err := s.deps.Bookings.Reserve(r.Context(), user, facility.Code, time.Unix(body.Timestamp, 0))
	metrics.IncBooking("reserve", facility.Code, outcomeLabel(err))
	if err != nil {
		s.writeWriteError(w, err, "reserve")
		return
	}

	writeOutcome(w, ReservedOutcome(booking.Date), booking)
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	facility := facilityFrom(r)
	user := s.viewer(r)

	ts, err := strconv.ParseInt(mux.Vars(r)["timestamp"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	booking, err := s.deps.Bookings.Cancel(r.Context(), user, facility.Code, time.Unix(ts, 0))
	metrics.IncBooking("cancel", facility.Code, outcomeLabel(err))
	if err != nil {
		s.writeWriteError(w, err, "cancel")
		return
	}

	writeOutcome(w, CancelledOutcome(booking.Date), booking)
}

func (s *HTTPServer) handleQuota(w http.ResponseWriter, r *http.Request) {
	user := s.viewer(r)
	if user == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s header is required", s.cfg.UserHeader))
		return
	}

	remaining, err := s.deps.Quota.Remaining(r.Context(), user, s.deps.Clock.Now())
	if err != nil {
		s.internalError(w, err, "compute quota")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"quota":     s.deps.Quota.Quota(),
		"remaining": remaining,
	})
}

func (s *HTTPServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Statistics.List(r.Context())
	if err != nil {
		s.internalError(w, err, "list statistics")
		return
	}
	if stats == nil {
		stats = []*models.Statistic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *HTTPServer) handleStatisticsExport(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Statistics.List(r.Context())
	if err != nil {
		s.internalError(w, err, "list statistics")
		return
	}

	now := s.deps.Clock.Now()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statistik_%s.xlsx"`, now.Format("20060102")))
	if err := export.WriteStatistics(w, stats, s.booking.Facilities, now); err != nil {
		s.logger.Error().Err(err).Msg("write statistics workbook")
	}
}

// allowAttempt applies the per-user reservation limit. Limiter errors fail open.
func (s *HTTPServer) allowAttempt(ctx context.Context, user string) bool {
	if s.deps.Limiter == nil || user == "" || s.booking.RateLimitAttempts <= 0 {
		return true
	}
	allowed, err := s.deps.Limiter.CheckRateLimit(ctx, "reserve:"+user, s.booking.RateLimitAttempts, s.booking.RateLimitWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", user).Msg("rate limit check failed")
		return true
	}
	return allowed
}

func (s *HTTPServer) writeWriteError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if outcome, ok := OutcomeFromError(err); ok {
		writeOutcome(w, outcome, nil)
		return
	}
	s.internalError(w, err, op)
}

func (s *HTTPServer) internalError(w http.ResponseWriter, err error, op string) {
	s.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeOutcome(w http.ResponseWriter, outcome Outcome, booking *models.Booking) {
	resp := map[string]any{"outcome": outcome}
	if booking != nil {
		resp["booking"] = booking
	}
	writeJSON(w, outcome.Status, resp)
}
