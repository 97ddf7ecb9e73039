package models

import "time"

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
)

type Product struct {
	ID               int64      `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	AmazonLink       string     `json:"amazon_link" db:"amazon_link"`
	Price            *float64   `json:"price,omitempty" db:"price"`
	Currency         string     `json:"currency,omitempty" db:"currency"`
	PriceLastUpdated *time.Time `json:"price_last_updated,omitempty" db:"price_last_updated"`
	PriceSyncStatus  SyncStatus `json:"price_sync_status" db:"price_sync_status"`
	PriceSyncError   string     `json:"price_sync_error,omitempty" db:"price_sync_error"`
	CreatorID        int64      `json:"creator_id" db:"creator_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// ProductPrice is one item of a batched upstream price lookup.
// Price is nil when the item was found upstream but carries no offer.
type ProductPrice struct {
	ASIN     string   `json:"asin"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
}

type SyncError struct {
	ProductID    int64  `json:"product_id"`
	ASIN         string `json:"asin"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
}

// SyncExecution is the result record of one price-sync run.
type SyncExecution struct {
	ExecutionID   string      `json:"execution_id"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	TotalProducts int         `json:"total_products"`
	SuccessCount  int         `json:"success_count"`
	FailureCount  int         `json:"failure_count"`
	SkippedCount  int         `json:"skipped_count"`
	Errors        []SyncError `json:"errors,omitempty"`
}

// ProcessedCount returns the number of products with an extractable ASIN.
func (e *SyncExecution) ProcessedCount() int {
	return e.TotalProducts - e.SkippedCount
}

// FailureRate returns the failure percentage over processed products,
// 0 when nothing was processed.
func (e *SyncExecution) FailureRate() float64 {
	processed := e.ProcessedCount()
	if processed == 0 {
		return 0
	}
	return float64(e.FailureCount) / float64(processed) * 100
}

// SuccessRate returns the success percentage over processed products,
// 0 when nothing was processed.
func (e *SyncExecution) SuccessRate() float64 {
	processed := e.ProcessedCount()
	if processed == 0 {
		return 0
	}
	return float64(e.SuccessCount) / float64(processed) * 100
}

type AlertType string

const (
	AlertAuthenticationFailure AlertType = "authentication_failure"
	AlertHighFailureRate       AlertType = "high_failure_rate"
	AlertConfigFailure         AlertType = "config_failure"
	AlertStoreFailure          AlertType = "store_failure"
	AlertExecutionFailure      AlertType = "execution_failure"
)

type Alert struct {
	Type        AlertType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
