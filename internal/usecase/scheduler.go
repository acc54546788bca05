package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ProcureAI/internal/domain"
	"ProcureAI/internal/ports"
)

// SyncInterval is how often the background inbox sync runs.
const SyncInterval = 10 * time.Minute

// Scheduler wires the interval driver with the inbox sync use case.
type Scheduler struct {
	driver ports.Scheduler
	syncer *Syncer
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring sync.
func NewScheduler(driver ports.Scheduler, syncer *Syncer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, syncer: syncer, logger: logger}
}

// Start registers the sync job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.syncer == nil {
		return nil
	}

	return s.driver.Start(ctx, s.run(ctx))
}

func (s *Scheduler) run(ctx context.Context) func(time.Time) {
	return func(trigger time.Time) {
		result, err := s.syncer.SyncProposals(ctx)
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			s.logger.Info("scheduled sync skipped, another run is active", "trigger", trigger)
		case err != nil:
			s.logger.Error("scheduled sync failed", "trigger", trigger, "error", err)
		default:
			s.logger.Debug("scheduled sync done", "trigger", trigger, "processed", result.Processed)
		}
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
