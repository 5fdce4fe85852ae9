// Command retention runs one retention pass: bookings older than the
// configured number of days are folded into weekly statistics and removed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lernecken/internal/config"
	"lernecken/internal/database"
	"lernecken/internal/export"
	"lernecken/internal/logging"
	"lernecken/internal/service"
)

func main() {
	exportStats := flag.Bool("export", false, "write a statistics workbook to the exports directory")
	flag.Parse()

	if err := run(*exportStats); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(exportStats bool) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.WithComponent(baseLogger, "retention")

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := service.NewStatisticsService(db, nil, logger)
	retention := service.NewRetentionService(db, stats, nil, cfg.Booking.ExpirationDays, logger)

	removed, err := retention.Run(ctx, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d bookings\n", removed)

	if !exportStats {
		return nil
	}

	all, err := stats.List(ctx)
	if err != nil {
		return err
	}
	path, err := export.SaveStatistics(cfg.Exports.Path, all, cfg.Booking.Facilities, time.Now())
	if err != nil {
		return fmt.Errorf("export statistics: %w", err)
	}
	fmt.Printf("Statistics written to %s\n", path)
	return nil
}
