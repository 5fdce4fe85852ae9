package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lernecken/internal/api"
	"lernecken/internal/config"
	"lernecken/internal/database"
	"lernecken/internal/domain"
	"lernecken/internal/events"
	"lernecken/internal/google"
	"lernecken/internal/logging"
	"lernecken/internal/metrics"
	"lernecken/internal/repository"
	"lernecken/internal/service"
	"lernecken/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.Connect(cfg.Database, &logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, coordinator := initCoordinator(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, &logger)

	var publisher domain.StatisticsPublisher
	if sheets := initGoogleSheets(ctx, cfg, &logger); sheets != nil {
		publisher = sheets
	}

	quota := service.NewQuotaService(db, cfg.Booking.Quota)
	bookings := service.NewBookingService(db, quota, eventBus, cfg.Booking.FacilityCodes(), domain.SystemClock, &logger)
	stats := service.NewStatisticsService(db, publisher, &logger)
	retention := service.NewRetentionService(db, stats, eventBus, cfg.Booking.ExpirationDays, &logger)

	startMetrics(ctx, cfg, &logger)

	if cfg.Backup.Enabled && db.Driver() == config.DriverSQLite {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Retention.Enabled {
		retry := worker.RetryPolicy{
			MaxRetries:    cfg.Retention.MaxRetries,
			InitialDelay:  cfg.Retention.RetryDelay,
			MaxDelay:      time.Minute,
			BackoffFactor: 2,
		}
		retentionWorker := worker.NewRetentionWorker(retention, coordinator, stats, cfg.Retention.Schedule, cfg.Retention.LockTTL, retry, &logger)
		go func() {
			if err := retentionWorker.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("retention worker stopped")
			}
		}()
	}

	if !cfg.API.HTTP.Enabled {
		logger.Warn().Msg("HTTP API is disabled in config, running background jobs only")
		<-ctx.Done()
		return nil
	}

	httpServer := api.NewHTTPServer(cfg.API, cfg.Booking, api.Dependencies{
		Bookings:   bookings,
		Quota:      quota,
		Statistics: stats,
		Lookup:     db,
		Storage:    db,
		Limiter:    coordinator,
		Clock:      domain.SystemClock,
	}, &logger)

	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := *logging.WithComponent(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func initCoordinator(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, repository.Coordinator) {
	memory := repository.NewMemoryCoordinator()
	if cfg.Redis.Address == "" {
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, starting on in-memory coordination")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	return redisClient, repository.NewFailoverCoordinator(repository.NewRedisCoordinator(redisClient), memory, logger)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.StatisticsSpreadsheet == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx,
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.StatisticsSpreadsheet,
		cfg.Google.StatisticsSheetName,
		cfg.Booking.Facilities,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed")
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event handler failed")
	})

	logBooking := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Debug().
			Str("event", ev.Type).
			Int64("booking_id", payload.BookingID).
			Str("facility", payload.Facility).
			Time("date", payload.Date).
			Msg("booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingReserved, logBooking)
	bus.Subscribe(events.EventBookingCancelled, logBooking)

	bus.Subscribe(events.EventRetentionCompleted, func(ev *events.Event) error {
		var payload events.RetentionEventPayload
		if err := ev.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Int("removed", payload.Removed).
			Int("buckets", payload.Buckets).
			Time("threshold", payload.Threshold).
			Msg("retention completed")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
