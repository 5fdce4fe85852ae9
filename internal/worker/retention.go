package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lernecken/internal/domain"
	"lernecken/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const retentionLock = "retention"

// ErrLocked is returned when another instance holds the retention lock.
var ErrLocked = errors.New("retention already running elsewhere")

// RetentionRunner performs one retention pass.
type RetentionRunner interface {
	Run(ctx context.Context, now time.Time) (int, error)
}

// StatisticsPublisher pushes statistics somewhere after a successful run.
type StatisticsPublisher interface {
	Publish(ctx context.Context) error
}

type RetentionWorker struct {
	job       RetentionRunner
	locker    domain.Locker
	publisher StatisticsPublisher
	schedule  string
	lockTTL   time.Duration
	retry     RetryPolicy
	clock     domain.Clock
	logger    *zerolog.Logger
}

func NewRetentionWorker(
	job RetentionRunner,
	locker domain.Locker,
	publisher StatisticsPublisher,
	schedule string,
	lockTTL time.Duration,
	retry RetryPolicy,
	logger *zerolog.Logger,
) *RetentionWorker {
	return &RetentionWorker{
		job:       job,
		locker:    locker,
		publisher: publisher,
		schedule:  schedule,
		lockTTL:   lockTTL,
		retry:     retry,
		clock:     domain.SystemClock,
		logger:    logger,
	}
}

// Start runs the job on its cron schedule until ctx is done.
func (w *RetentionWorker) Start(ctx context.Context) error {
	log := cronLogger{logger: w.logger}
	c := cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	if _, err := c.AddFunc(w.schedule, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", w.schedule, err)
	}

	w.logger.Info().Str("schedule", w.schedule).Msg("Retention worker started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info().Msg("Retention worker stopped")
	return nil
}

func (w *RetentionWorker) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrLocked) {
		w.logger.Error().Err(err).Msg("Retention run failed")
	}
}

// RunOnce takes the lock and runs the job with retries.
func (w *RetentionWorker) RunOnce(ctx context.Context) (int, error) {
	if w.locker != nil {
		ok, err := w.locker.AcquireLock(ctx, retentionLock, w.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire retention lock: %w", err)
		}
		if !ok {
			w.logger.Info().Msg("Retention skipped, lock held by another instance")
			return 0, ErrLocked
		}
		defer func() {
			if err := w.locker.ReleaseLock(context.WithoutCancel(ctx), retentionLock); err != nil {
				w.logger.Warn().Err(err).Msg("Failed to release retention lock")
			}
		}()
	}

	var removed int
	err := w.retry.Do(ctx, func(ctx context.Context) error {
		n, err := w.job.Run(ctx, w.clock.Now())
		removed = n
		return err
	}, func(attempt int, err error, wait time.Duration) {
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Retention attempt failed, retrying")
	})
	metrics.ObserveRetention(removed, err)
	if err != nil {
		return 0, err
	}

	if w.publisher != nil && removed > 0 {
		if err := w.publisher.Publish(ctx); err != nil {
			w.logger.Error().Err(err).Msg("Statistics publish failed")
		}
	}
	return removed, nil
}

// cronLogger routes robfig/cron log lines into zerolog.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
