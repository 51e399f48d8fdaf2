package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"media_sync/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	SyncAll(ctx context.Context) (*domain.RunSummary, error)
}

// Maintainer runs periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Config holds cron expressions for each cadence and the per-run timeout.
type Config struct {
	Frequent    string
	Hourly      string
	Maintenance string
	RunTimeout  time.Duration
}

type Scheduler struct {
	syncer     Syncer
	maintainer Maintainer
	config     Config
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, maintainer Maintainer, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	return &Scheduler{
		syncer:     syncer,
		maintainer: maintainer,
		config:     cfg,
		logger:     logger,
	}
}

// Start runs one sync immediately, then fires each cadence until ctx is
// done. It waits for running jobs before returning ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	cronLogger := &slogAdapter{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context, trigger string)
	}{
		{"frequent", s.config.Frequent, s.runSync},
		{"hourly", s.config.Hourly, s.runSync},
		{"maintenance", s.config.Maintenance, s.runMaintenance},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := c.AddFunc(job.spec, func() { job.run(ctx, job.name) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}

	s.logger.Info("scheduler started",
		"frequent", s.config.Frequent,
		"hourly", s.config.Hourly,
		"maintenance", s.config.Maintenance,
		"run_timeout", s.config.RunTimeout,
	)

	s.runSync(ctx, "startup")

	c.Start()
	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// TriggerSync runs a sync on demand. It shares the run lock with the
// scheduled cadences.
func (s *Scheduler) TriggerSync(ctx context.Context) (*domain.RunSummary, error) {
	syncCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	return s.syncer.SyncAll(syncCtx)
}

func (s *Scheduler) runSync(ctx context.Context, trigger string) {
	summary, err := s.TriggerSync(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		s.logger.Info("sync skipped, previous run still in progress", "trigger", trigger)
	case err != nil:
		s.logger.Error("sync failed", "trigger", trigger, "error", err)
	default:
		s.logger.Debug("scheduled sync finished", "trigger", trigger, "run_id", summary.RunID)
	}
}

func (s *Scheduler) runMaintenance(ctx context.Context, trigger string) {
	if s.maintainer == nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	if err := s.maintainer.Maintain(runCtx); err != nil {
		s.logger.Error("maintenance failed", "trigger", trigger, "error", err)
	}
}

// slogAdapter routes cron's internal logging through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a *slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
