// Package syncjob runs the Amazon price synchronization job: it reads
// every stored product, derives ASINs from affiliate links, looks prices
// up in rate-limited batches and writes the results back.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/asin"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/ratelimit"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/retry"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/paapi"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/google/uuid"
)

// Error codes attached to per-product entries in SyncExecution.Errors.
const (
	CodeNotFound         = "NOT_FOUND"
	CodePriceUnavailable = "PRICE_UNAVAILABLE"
	CodeUpdateFailed     = "UPDATE_FAILED"
	CodeBatchFailed      = "BATCH_FAILED"
	CodeAuthFailed       = "AUTH_FAILED"
)

// highFailureRateThreshold is the failure percentage (over processed
// products) above which the high-failure-rate alert fires. Strictly
// greater than.
const highFailureRateThreshold = 50.0

type ProductStore interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	UpdateProductPrice(ctx context.Context, productID int64, price float64, currency string) error
	MarkPriceSyncFailed(ctx context.Context, productID int64, reason string) error
}

type PricingClient interface {
	GetProductInfo(ctx context.Context, asins []string) ([]models.ProductPrice, error)
}

type AlertSink interface {
	Send(ctx context.Context, alertType models.AlertType, executionID, message string) error
}

type MetricsSink interface {
	RecordExecution(ctx context.Context, exec *models.SyncExecution) error
}

type Options struct {
	BatchSize      int
	RequestsPerSec float64
	MaxAttempts    int
	InitialDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 || o.BatchSize > paapi.MaxBatchSize {
		o.BatchSize = paapi.MaxBatchSize
	}
	if o.RequestsPerSec <= 0 {
		o.RequestsPerSec = 1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = retry.DefaultMaxAttempts
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = retry.DefaultInitialDelay
	}
	return o
}

type Orchestrator struct {
	log     *slog.Logger
	store   ProductStore
	pricing PricingClient
	alerts  AlertSink
	metrics MetricsSink
	opts    Options
}

func New(
	log *slog.Logger,
	store ProductStore,
	pricing PricingClient,
	alerts AlertSink,
	metrics MetricsSink,
	opts Options,
) *Orchestrator {
	return &Orchestrator{
		log:     log,
		store:   store,
		pricing: pricing,
		alerts:  alerts,
		metrics: metrics,
		opts:    opts.withDefaults(),
	}
}

// Run executes one complete sync. It returns the execution record in
// every case; the error is non-nil only for fatal aborts (store read
// failure or upstream authentication failure). Partial failures are
// absorbed into the record's counters and error list.
func (o *Orchestrator) Run(ctx context.Context, executionID string) (*models.SyncExecution, error) {
	const op = "syncjob.Run"

	if executionID == "" {
		executionID = uuid.NewString()
	}

	exec := &models.SyncExecution{
		ExecutionID: executionID,
		StartTime:   time.Now().UTC(),
	}

	log := o.log.With(
		slog.String("op", op),
		slog.String("execution_id", executionID),
	)

	log.Info("price sync started")

	products, err := o.store.GetAllProducts(ctx)
	if err != nil {
		exec.EndTime = time.Now().UTC()

		alertType := models.AlertStoreFailure
		if errors.Is(err, storage.ErrBadCredentials) {
			alertType = models.AlertConfigFailure
		}
		o.sendAlert(ctx, log, alertType, executionID,
			fmt.Sprintf("price sync could not read products: %v", err))

		return exec, fmt.Errorf("%s: fetch products: %w", op, err)
	}

	exec.TotalProducts = len(products)

	// Products without an extractable ASIN are skipped, never failed.
	// On duplicate ASINs the last product wins.
	byASIN := make(map[string]models.Product)
	asins := make([]string, 0, len(products))

	for _, p := range products {
		id, ok := asin.Extract(p.AmazonLink)
		if !ok {
			exec.SkippedCount++
			continue
		}
		if _, seen := byASIN[id]; !seen {
			asins = append(asins, id)
		}
		byASIN[id] = p
	}

	batches := partition(asins, o.opts.BatchSize)

	// One limiter instance for the whole run, so time spent in retry
	// backoff counts against the rate budget of the next batch.
	limiter := ratelimit.New(o.opts.RequestsPerSec)

	for i, batch := range batches {
		prices, err := o.lookupBatch(ctx, limiter, batch)
		if err != nil {
			var authErr *paapi.AuthenticationError
			if errors.As(err, &authErr) {
				o.failBatches(ctx, log, exec, byASIN, batches[i:], "authentication failed", CodeAuthFailed)
				o.sendAlert(ctx, log, models.AlertAuthenticationFailure, executionID,
					fmt.Sprintf("Amazon rejected price sync credentials: %v", err))

				exec.EndTime = time.Now().UTC()

				return exec, fmt.Errorf("%s: batch %d: %w", op, i, err)
			}

			// Generic batch failure (including exhausted rate-limit
			// retries): fail this batch only, keep going.
			log.Error("batch failed", slog.Int("batch", i), sl.Err(err))
			o.failBatches(ctx, log, exec, byASIN, batches[i:i+1], err.Error(), CodeBatchFailed)

			continue
		}

		o.applyBatch(ctx, log, exec, byASIN, batch, prices)
	}

	exec.EndTime = time.Now().UTC()

	if err := o.metrics.RecordExecution(ctx, exec); err != nil {
		log.Error("failed to record metrics", sl.Err(err))
	}

	if exec.FailureRate() > highFailureRateThreshold {
		o.sendAlert(ctx, log, models.AlertHighFailureRate, executionID,
			fmt.Sprintf("price sync failure rate %.1f%% (%d of %d processed products failed)",
				exec.FailureRate(), exec.FailureCount, exec.ProcessedCount()))
	}

	log.Info("price sync finished",
		slog.Int("total", exec.TotalProducts),
		slog.Int("success", exec.SuccessCount),
		slog.Int("failed", exec.FailureCount),
		slog.Int("skipped", exec.SkippedCount),
	)

	return exec, nil
}

// lookupBatch calls the pricing client through the rate limiter, with
// bounded retry inside the limiter slot. Authentication errors skip the
// remaining attempts.
func (o *Orchestrator) lookupBatch(
	ctx context.Context,
	limiter *ratelimit.Limiter,
	batch []string,
) ([]models.ProductPrice, error) {
	retryOpts := retry.Options{
		MaxAttempts:  o.opts.MaxAttempts,
		InitialDelay: o.opts.InitialDelay,
		Retryable: func(err error) bool {
			var authErr *paapi.AuthenticationError
			return !errors.As(err, &authErr)
		},
	}

	var prices []models.ProductPrice

	err := limiter.Execute(ctx, func() error {
		var err error
		prices, err = retry.Do(ctx, retryOpts, func(ctx context.Context) ([]models.ProductPrice, error) {
			return o.pricing.GetProductInfo(ctx, batch)
		})
		return err
	})

	return prices, err
}

// applyBatch writes one successful lookup back to the store. ASINs the
// upstream did not return are treated as not found.
func (o *Orchestrator) applyBatch(
	ctx context.Context,
	log *slog.Logger,
	exec *models.SyncExecution,
	byASIN map[string]models.Product,
	batch []string,
	prices []models.ProductPrice,
) {
	returned := make(map[string]models.ProductPrice, len(prices))
	for _, pp := range prices {
		returned[pp.ASIN] = pp
	}

	for _, id := range batch {
		product := byASIN[id]

		pp, ok := returned[id]
		switch {
		case !ok:
			o.failProduct(ctx, log, exec, product, id, "not found", CodeNotFound)

		case pp.Price == nil:
			o.failProduct(ctx, log, exec, product, id, "price not available", CodePriceUnavailable)

		default:
			if err := o.store.UpdateProductPrice(ctx, product.ID, *pp.Price, pp.Currency); err != nil {
				log.Error("price update failed",
					slog.Int64("product_id", product.ID),
					sl.Err(err),
				)
				exec.FailureCount++
				exec.Errors = append(exec.Errors, models.SyncError{
					ProductID:    product.ID,
					ASIN:         id,
					ErrorMessage: err.Error(),
					ErrorCode:    CodeUpdateFailed,
				})
				continue
			}
			exec.SuccessCount++
		}
	}
}

// failProduct marks one product failed in the store and books the
// failure. A failing mark is logged but still counted.
func (o *Orchestrator) failProduct(
	ctx context.Context,
	log *slog.Logger,
	exec *models.SyncExecution,
	product models.Product,
	asinID, reason, code string,
) {
	if err := o.store.MarkPriceSyncFailed(ctx, product.ID, reason); err != nil {
		log.Error("failed to mark product",
			slog.Int64("product_id", product.ID),
			sl.Err(err),
		)
	}

	exec.FailureCount++
	exec.Errors = append(exec.Errors, models.SyncError{
		ProductID:    product.ID,
		ASIN:         asinID,
		ErrorMessage: reason,
		ErrorCode:    code,
	})
}

// failBatches marks every product of the given batches failed.
func (o *Orchestrator) failBatches(
	ctx context.Context,
	log *slog.Logger,
	exec *models.SyncExecution,
	byASIN map[string]models.Product,
	batches [][]string,
	reason, code string,
) {
	for _, batch := range batches {
		for _, id := range batch {
			o.failProduct(ctx, log, exec, byASIN[id], id, reason, code)
		}
	}
}

// sendAlert is best effort; alert delivery failures never change the
// outcome of a run.
func (o *Orchestrator) sendAlert(
	ctx context.Context,
	log *slog.Logger,
	alertType models.AlertType,
	executionID, message string,
) {
	if err := o.alerts.Send(ctx, alertType, executionID, message); err != nil {
		log.Error("failed to send alert",
			slog.String("alert_type", string(alertType)),
			sl.Err(err),
		)
	}
}

// partition splits ids into ordered batches of at most size elements.
func partition(ids []string, size int) [][]string {
	var batches [][]string

	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	return batches
}
