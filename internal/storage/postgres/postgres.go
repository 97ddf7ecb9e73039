package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/config"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping failed: %w", op, classify(err))
	}

	return &PostgresRepo{pool: pool}, nil
}

// SaveProduct inserts a new affiliate product. Price fields stay empty
// until the next sync run picks the product up.
func (r *PostgresRepo) SaveProduct(
	ctx context.Context,
	creatorID int64,
	amazonLink, title string,
) (int64, error) {
	const op = "storage.postgres.SaveProduct"

	const query = `
		INSERT INTO products (creator_id, amazon_link, title, price_sync_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64

	err := r.pool.QueryRow(ctx, query, creatorID, amazonLink, title, models.SyncPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to save product: %w", op, err)
	}

	return id, nil
}

// Products returns one page of a creator's products plus the total count.
func (r *PostgresRepo) Products(ctx context.Context, creatorID, limit, offset int64) ([]models.Product, int64, error) {
	const op = "storage.postgres.Products"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, title, amazon_link, price, currency, price_last_updated,
		       price_sync_status, price_sync_error, creator_id, created_at, updated_at
		FROM products
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := tx.Query(ctx, query, creatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: collect: %w", op, err)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE creator_id = $1`
	if err := tx.QueryRow(ctx, countQuery, creatorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return products, total, nil
}

// ProductByID returns a single product.
func (r *PostgresRepo) ProductByID(ctx context.Context, productID int64) (models.Product, error) {
	const op = "storage.postgres.ProductByID"

	const query = `
		SELECT id, title, amazon_link, price, currency, price_last_updated,
		       price_sync_status, price_sync_error, creator_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: query: %w", op, err)
	}

	p, err := pgx.CollectOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, storage.ErrProductNotFound
		}

		return models.Product{}, fmt.Errorf("%s: failed to scan product: %w", op, err)
	}

	return p, nil
}

// DeleteProduct removes a product owned by the given creator.
func (r *PostgresRepo) DeleteProduct(ctx context.Context, productID, creatorID int64) error {
	const op = "storage.postgres.DeleteProduct"

	const query = `
		DELETE FROM products
		WHERE id = $1 AND creator_id = $2
	`

	cmd, err := r.pool.Exec(ctx, query, productID, creatorID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

// getAllPageSize bounds one keyset page of the full-table scan.
const getAllPageSize = 500

// GetAllProducts pages through the whole products table. Used by the
// price-sync job; no silent truncation.
func (r *PostgresRepo) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.postgres.GetAllProducts"

	const query = `
		SELECT id, title, amazon_link, price, currency, price_last_updated,
		       price_sync_status, price_sync_error, creator_id, created_at, updated_at
		FROM products
		WHERE id > $1
		ORDER BY id
		LIMIT $2
	`

	var (
		all    []models.Product
		lastID int64
	)

	for {
		rows, err := r.pool.Query(ctx, query, lastID, getAllPageSize)
		if err != nil {
			return nil, fmt.Errorf("%s: query: %w", op, classify(err))
		}

		page, err := pgx.CollectRows(rows, scanProduct)
		if err != nil {
			return nil, fmt.Errorf("%s: collect: %w", op, err)
		}

		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		lastID = page[len(page)-1].ID

		if len(page) < getAllPageSize {
			break
		}
	}

	return all, nil
}

// UpdateProductPrice records a successful price sync for one product.
func (r *PostgresRepo) UpdateProductPrice(ctx context.Context, productID int64, price float64, currency string) error {
	const op = "storage.postgres.UpdateProductPrice"

	const query = `
		UPDATE products
		SET price = $1,
			currency = $2,
			price_sync_status = $3,
			price_sync_error = '',
			price_last_updated = now(),
			updated_at = now()
		WHERE id = $4
	`

	cmd, err := r.pool.Exec(ctx, query, price, currency, models.SyncSuccess, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

// MarkPriceSyncFailed records a failed price sync for one product.
func (r *PostgresRepo) MarkPriceSyncFailed(ctx context.Context, productID int64, reason string) error {
	const op = "storage.postgres.MarkPriceSyncFailed"

	const query = `
		UPDATE products
		SET price_sync_status = $1,
			price_sync_error = $2,
			updated_at = now()
		WHERE id = $3
	`

	cmd, err := r.pool.Exec(ctx, query, models.SyncFailed, reason, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

// SaveExecution persists the result record of one sync run.
func (r *PostgresRepo) SaveExecution(ctx context.Context, exec *models.SyncExecution) error {
	const op = "storage.postgres.SaveExecution"

	errorsJSON, err := json.Marshal(exec.Errors)
	if err != nil {
		return fmt.Errorf("%s: marshal errors: %w", op, err)
	}

	const query = `
		INSERT INTO sync_executions
			(execution_id, start_time, end_time, total_products,
			 success_count, failure_count, skipped_count, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		exec.ExecutionID,
		exec.StartTime,
		exec.EndTime,
		exec.TotalProducts,
		exec.SuccessCount,
		exec.FailureCount,
		exec.SkippedCount,
		errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close closes the connection pool.
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func scanProduct(row pgx.CollectableRow) (models.Product, error) {
	var p models.Product

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.AmazonLink,
		&p.Price,
		&p.Currency,
		&p.PriceLastUpdated,
		&p.PriceSyncStatus,
		&p.PriceSyncError,
		&p.CreatorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

// classify maps credential rejections onto the shared sentinel so the
// sync job can tell a config failure from a generic store failure.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == storage.InvalidPassword {
		return fmt.Errorf("%w: %s", storage.ErrBadCredentials, pgErr.Message)
	}

	return err
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
