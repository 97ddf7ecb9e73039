// Package metrics records per-run price-sync measurements.
package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
)

type ExecutionStore interface {
	SaveExecution(ctx context.Context, exec *models.SyncExecution) error
}

// Sink persists one row per run and mirrors the numbers to the log.
// Best effort: a failed emit must never fail the run.
type Sink struct {
	log   *slog.Logger
	store ExecutionStore
}

func NewSink(log *slog.Logger, store ExecutionStore) *Sink {
	return &Sink{
		log:   log,
		store: store,
	}
}

func (s *Sink) RecordExecution(ctx context.Context, exec *models.SyncExecution) error {
	const op = "metrics.RecordExecution"

	s.log.Info("price sync metrics",
		slog.String("execution_id", exec.ExecutionID),
		slog.Int("total_products", exec.TotalProducts),
		slog.Int("success_count", exec.SuccessCount),
		slog.Int("failure_count", exec.FailureCount),
		slog.Int("skipped_count", exec.SkippedCount),
		slog.Int("processed_count", exec.ProcessedCount()),
		slog.Float64("success_rate", exec.SuccessRate()),
		slog.Float64("failure_rate", exec.FailureRate()),
		slog.Int64("duration_ms", exec.EndTime.Sub(exec.StartTime).Milliseconds()),
	)

	if err := s.store.SaveExecution(ctx, exec); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
