package transaction

import (
	"context"
	"errors"
	"fmt"
	"slices"

	models "github.com/fatflowers/subsync/internal/models"
	types "github.com/fatflowers/subsync/pkg/types"
)

// ErrInvalidScanRequest marks admin list requests that fail validation.
var ErrInvalidScanRequest = errors.New("invalid scan request")

// TransactionManager is the payment transaction ledger. Rows are append-only.
type TransactionManager interface {
	// Append inserts tx unless a row with the same provider transaction id
	// exists. It reports whether a row was created.
	Append(ctx context.Context, tx *models.PaymentTransaction) (bool, error)
	// ListUserTransactions returns a user's transactions, newest first.
	ListUserTransactions(ctx context.Context, userID string, limit int) ([]*models.PaymentTransaction, error)
	// Scan transactions (used by admin list pages).
	ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error)
}

// ScannableFields are the columns admin filters and sorting may reference.
var ScannableFields = []string{
	"id", "user_id", "provider_subscription_id", "provider_transaction_id",
	"transaction_type", "amount", "currency", "status", "created_at",
}

const (
	DefaultScanSize = 10
	MaxScanSize     = 200
)

// Scan transaction request/response.
type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// Normalize applies paging defaults and validates filters and sorting.
func (r *ScanTransactionsRequest) Normalize() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidScanRequest)
	}
	if r.Size <= 0 {
		r.Size = DefaultScanSize
	}
	r.Size = min(r.Size, MaxScanSize)
	if r.From < 0 {
		r.From = 0
	}
	for _, f := range r.Filters {
		if err := f.Validate(ScannableFields); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScanRequest, err)
		}
	}
	if r.SortBy != "" && !slices.Contains(ScannableFields, r.SortBy) {
		return fmt.Errorf("%w: sort_by not allowed: %s", ErrInvalidScanRequest, r.SortBy)
	}
	switch r.SortOrder {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("%w: sort_order must be asc or desc", ErrInvalidScanRequest)
	}
	return nil
}

type ScanTransactionsResponse struct {
	Items []*models.PaymentTransaction `json:"items"`
	Total int64                        `json:"total"`
}
