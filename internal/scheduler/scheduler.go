// Package scheduler triggers the price-sync job on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"
)

type SyncRunner interface {
	Run(ctx context.Context, executionID string) (*models.SyncExecution, error)
}

type Scheduler struct {
	log      *slog.Logger
	runner   SyncRunner
	interval time.Duration
}

func New(log *slog.Logger, runner SyncRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		log:      log,
		runner:   runner,
		interval: interval,
	}
}

// Start runs the ticker loop until ctx is cancelled. A scheduled tick
// that overlaps a manual run is skipped.
func (s *Scheduler) Start(ctx context.Context) {
	const op = "scheduler.Start"

	log := s.log.With(slog.String("op", op))
	log.Info("price sync scheduler started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("price sync scheduler stopped")
			return
		case <-ticker.C:
			// executionID is left empty: the runner generates one.
			_, err := s.runner.Run(ctx, "")
			switch {
			case errors.Is(err, storage.ErrRunInProgress):
				log.Warn("skipping scheduled sync, another run in progress")
			case err != nil:
				log.Error("scheduled sync failed", sl.Err(err))
			}
		}
	}
}
