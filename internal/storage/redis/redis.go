package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/redis/go-redis/v9"
)

const (
	lastExecutionKey = "pricesync:last_execution"
	runLockKey       = "pricesync:run_lock"
)

type RedisRepo struct {
	client     *redis.Client
	DefaultTTL time.Duration
}

func New(ctx context.Context, address string, db int, defaultTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	rdb := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client:     rdb,
		DefaultTTL: defaultTTL,
	}, nil
}

// SaveExecution caches the latest sync execution record.
func (r *RedisRepo) SaveExecution(ctx context.Context, exec *models.SyncExecution) error {
	const op = "storage.redis.SaveExecution"

	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, lastExecutionKey, data, r.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// LastExecution returns the most recent cached sync execution record.
func (r *RedisRepo) LastExecution(ctx context.Context) (*models.SyncExecution, error) {
	const op = "storage.redis.LastExecution"

	data, err := r.client.Get(ctx, lastExecutionKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, storage.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var exec models.SyncExecution
	if err := json.Unmarshal(data, &exec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &exec, nil
}

// AcquireRunLock takes the cross-run advisory lock. Returns
// storage.ErrRunInProgress when another run holds it. The TTL guards
// against a crashed run holding the lock forever.
func (r *RedisRepo) AcquireRunLock(ctx context.Context, executionID string, ttl time.Duration) error {
	const op = "storage.redis.AcquireRunLock"

	ok, err := r.client.SetNX(ctx, runLockKey, executionID, ttl).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return storage.ErrRunInProgress
	}

	return nil
}

// ReleaseRunLock drops the advisory lock if this execution still owns it.
func (r *RedisRepo) ReleaseRunLock(ctx context.Context, executionID string) error {
	const op = "storage.redis.ReleaseRunLock"

	// Compare-and-delete so a slow run cannot release a newer run's lock.
	const script = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`

	if err := r.client.Eval(ctx, script, []string{runLockKey}, executionID).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close closes the connection.
func (r *RedisRepo) Close() {
	r.client.Close()
}
