package models

import (
	"time"

	"github.com/fatflowers/subsync/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction is an append-only record of a charge attempt, kept for
// display and audit. Rows are never updated.
type PaymentTransaction struct {
	ID                     string                  `gorm:"column:id;type:varchar(64);primaryKey;index:idx_payment_transactions_user_id,priority:2,sort:desc" json:"id"`
	UserID                 string                  `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_transactions_user_id,priority:1" json:"user_id"`
	ProviderSubscriptionID string                  `gorm:"column:provider_subscription_id;type:varchar(128);index" json:"provider_subscription_id"`
	ProviderTransactionID  string                  `gorm:"column:provider_transaction_id;type:varchar(128);not null;uniqueIndex" json:"provider_transaction_id"`
	TransactionType        types.TransactionType   `gorm:"column:transaction_type;type:varchar(64);not null" json:"transaction_type"`
	Amount                 decimal.Decimal         `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Currency               string                  `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status                 types.TransactionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Metadata               datatypes.JSONMap       `gorm:"column:metadata;type:json" json:"metadata"`
	CreatedAt              time.Time               `json:"created_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
