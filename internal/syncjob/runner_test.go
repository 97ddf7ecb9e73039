package syncjob

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"
)

type fakeCache struct {
	mu         sync.Mutex
	acquireErr error

	acquired []string
	released []string
	saved    []*models.SyncExecution
}

func (c *fakeCache) AcquireRunLock(ctx context.Context, executionID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acquireErr != nil {
		return c.acquireErr
	}
	c.acquired = append(c.acquired, executionID)
	return nil
}

func (c *fakeCache) ReleaseRunLock(ctx context.Context, executionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = append(c.released, executionID)
	return nil
}

func (c *fakeCache) SaveExecution(ctx context.Context, exec *models.SyncExecution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, exec)
	return nil
}

func (c *fakeCache) releaseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.released)
}

func newTestRunner(store *fakeStore, cache *fakeCache) *Runner {
	orch := New(testLogger(), store, &fakePricing{respond: pricesForAll(5)}, &fakeAlerts{}, &fakeMetrics{}, fastOpts())
	return NewRunner(testLogger(), orch, cache, time.Minute)
}

func TestRunnerLockLifecycle(t *testing.T) {
	store := newFakeStore([]models.Product{linkedProduct(1)})
	cache := &fakeCache{}
	runner := newTestRunner(store, cache)

	exec, err := runner.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if exec.SuccessCount != 1 {
		t.Fatalf("SuccessCount = %d; want 1", exec.SuccessCount)
	}

	if len(cache.acquired) != 1 || cache.acquired[0] != "run-1" {
		t.Errorf("acquired = %v; want one acquire for run-1", cache.acquired)
	}
	if len(cache.released) != 1 || cache.released[0] != "run-1" {
		t.Errorf("released = %v; want one release for run-1", cache.released)
	}
	if len(cache.saved) != 1 {
		t.Errorf("saved %d executions; want 1", len(cache.saved))
	}
}

func TestRunnerRefusesOverlappingRun(t *testing.T) {
	store := newFakeStore([]models.Product{linkedProduct(1)})
	cache := &fakeCache{acquireErr: storage.ErrRunInProgress}
	runner := newTestRunner(store, cache)

	_, err := runner.Run(context.Background(), "run-2")
	if !errors.Is(err, storage.ErrRunInProgress) {
		t.Fatalf("got error %v; want storage.ErrRunInProgress", err)
	}

	if len(store.updated) != 0 || len(store.failed) != 0 {
		t.Error("store touched despite refused run")
	}
	if len(cache.released) != 0 {
		t.Error("lock released despite never acquired")
	}
}

func TestRunnerReleasesLockOnFatalRun(t *testing.T) {
	store := newFakeStore(nil)
	store.fetchErr = errors.New("connection refused")
	cache := &fakeCache{}
	runner := newTestRunner(store, cache)

	exec, err := runner.Run(context.Background(), "run-3")
	if err == nil {
		t.Fatal("Run returned nil error; want fetch failure")
	}
	if exec == nil {
		t.Fatal("Run returned nil execution; want partial record")
	}

	if len(cache.released) != 1 {
		t.Errorf("released %d locks; want 1", len(cache.released))
	}
	if len(cache.saved) != 1 {
		t.Errorf("saved %d executions; want 1 (partial record)", len(cache.saved))
	}
}

func TestRunnerStartReturnsExecutionID(t *testing.T) {
	store := newFakeStore([]models.Product{linkedProduct(1)})
	cache := &fakeCache{}
	runner := newTestRunner(store, cache)

	id, err := runner.Start(context.Background(), "")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if id == "" {
		t.Fatal("Start returned empty execution id")
	}

	// The background run eventually releases the lock.
	deadline := time.Now().Add(2 * time.Second)
	for cache.releaseCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("lock not released by background run")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
