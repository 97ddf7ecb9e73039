package syncjob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"

	"github.com/google/uuid"
)

type ExecutionCache interface {
	AcquireRunLock(ctx context.Context, executionID string, ttl time.Duration) error
	ReleaseRunLock(ctx context.Context, executionID string) error
	SaveExecution(ctx context.Context, exec *models.SyncExecution) error
}

// Runner guards the orchestrator with the cross-run advisory lock and
// caches the resulting execution record. Both the scheduler and the
// manual trigger go through it.
type Runner struct {
	log     *slog.Logger
	orch    *Orchestrator
	cache   ExecutionCache
	lockTTL time.Duration
}

func NewRunner(log *slog.Logger, orch *Orchestrator, cache ExecutionCache, lockTTL time.Duration) *Runner {
	return &Runner{
		log:     log,
		orch:    orch,
		cache:   cache,
		lockTTL: lockTTL,
	}
}

// Run performs one locked sync run and blocks until it finishes. It
// returns storage.ErrRunInProgress without touching any product when
// another run holds the lock.
func (r *Runner) Run(ctx context.Context, executionID string) (*models.SyncExecution, error) {
	const op = "syncjob.Runner.Run"

	if executionID == "" {
		executionID = uuid.NewString()
	}

	if err := r.cache.AcquireRunLock(ctx, executionID, r.lockTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exec, err := r.runLocked(ctx, executionID)
	if err != nil {
		return exec, fmt.Errorf("%s: %w", op, err)
	}

	return exec, nil
}

// Start acquires the lock synchronously and runs the sync in the
// background, so a manual trigger can answer right away. The returned
// execution ID identifies the run in progress.
func (r *Runner) Start(ctx context.Context, executionID string) (string, error) {
	const op = "syncjob.Runner.Start"

	if executionID == "" {
		executionID = uuid.NewString()
	}

	if err := r.cache.AcquireRunLock(ctx, executionID, r.lockTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		// Detached from the request context: the run outlives it.
		ctx := context.WithoutCancel(ctx)

		if _, err := r.runLocked(ctx, executionID); err != nil {
			r.log.Error("manual sync failed",
				slog.String("execution_id", executionID),
				sl.Err(err),
			)
		}
	}()

	return executionID, nil
}

func (r *Runner) runLocked(ctx context.Context, executionID string) (*models.SyncExecution, error) {
	defer func() {
		if err := r.cache.ReleaseRunLock(context.WithoutCancel(ctx), executionID); err != nil {
			r.log.Error("failed to release run lock",
				slog.String("execution_id", executionID),
				sl.Err(err),
			)
		}
	}()

	exec, runErr := r.orch.Run(ctx, executionID)

	if exec != nil {
		if err := r.cache.SaveExecution(ctx, exec); err != nil {
			r.log.Error("failed to cache execution",
				slog.String("execution_id", executionID),
				sl.Err(err),
			)
		}
	}

	return exec, runErr
}
