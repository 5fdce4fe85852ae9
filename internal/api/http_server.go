package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lernecken/internal/config"
	"lernecken/internal/domain"
	"lernecken/internal/models"
	"lernecken/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Bookings   *service.BookingService
	Quota      *service.QuotaService
	Statistics *service.StatisticsService
	Lookup     domain.BookingLookup
	Storage    Pinger
	Limiter    domain.RateLimiter
	Clock      domain.Clock
}

// HTTPServer exposes the booking engine as a JSON API.
type HTTPServer struct {
	cfg        config.APIConfig
	booking    config.BookingConfig
	deps       Dependencies
	facilities map[string]models.Facility
	router     *mux.Router
	server     *http.Server
	logger     *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, booking config.BookingConfig, deps Dependencies, logger *zerolog.Logger) *HTTPServer {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock
	}
	if cfg.UserHeader == "" {
		cfg.UserHeader = "X-User-ID"
	}

	srv := &HTTPServer{
		cfg:        cfg,
		booking:    booking,
		deps:       deps,
		facilities: make(map[string]models.Facility, len(booking.Facilities)),
		router:     mux.NewRouter(),
		logger:     logger,
	}
	for _, f := range booking.Facilities {
		srv.facilities[f.Code] = f
	}

	srv.routes()

	auth := NewHTTPAuth(cfg)
	handler := requestIDMiddleware(loggingMiddleware(srv.router, logger)(auth.Wrap(srv.router)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/facilities", s.handleFacilities).Methods(http.MethodGet)
	v1.HandleFunc("/facilities/{facility}/period", s.withFacility(s.handlePeriod)).Methods(http.MethodGet)
	v1.HandleFunc("/facilities/{facility}/status", s.withFacility(s.handleStatus)).Methods(http.MethodGet)
	v1.HandleFunc("/facilities/{facility}/bookings", s.withFacility(s.handleReserve)).Methods(http.MethodPost)
	v1.HandleFunc("/facilities/{facility}/bookings/{timestamp:[0-9]+}", s.withFacility(s.handleCancel)).Methods(http.MethodDelete)
	v1.HandleFunc("/quota", s.handleQuota).Methods(http.MethodGet)
	v1.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)
	v1.HandleFunc("/statistics/export", s.handleStatisticsExport).Methods(http.MethodGet)
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type facilityKey struct{}

// withFacility rejects facility codes outside the configured set.
func (s *HTTPServer) withFacility(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["facility"]
		f, ok := s.facilities[code]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown facility")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), facilityKey{}, f)))
	}
}

func facilityFrom(r *http.Request) models.Facility {
	f, _ := r.Context().Value(facilityKey{}).(models.Facility)
	return f
}

func (s *HTTPServer) viewer(r *http.Request) string {
	return r.Header.Get(s.cfg.UserHeader)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
