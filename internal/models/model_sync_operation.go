package models

import (
	"time"

	"github.com/fatflowers/subsync/pkg/types"
	"gorm.io/datatypes"
)

type SyncOperationStatus string

const (
	SyncOperationStatusSucceeded SyncOperationStatus = "succeeded"
	SyncOperationStatusFailed    SyncOperationStatus = "failed"
)

// SyncOperation is the audit trail of one reconciliation run.
// Use case: debugging what the provider returned and what we wrote.
type SyncOperation struct {
	ID                     string                  `gorm:"column:id;type:varchar(64);primaryKey"`
	UserID                 string                  `gorm:"column:user_id;type:varchar(64);index:idx_sync_operations_user_id,priority:1;not null"`
	ProviderSubscriptionID string                  `gorm:"column:provider_subscription_id;type:varchar(128);index"`
	OperationType          types.SyncOperationType `gorm:"column:operation_type;type:varchar(64);not null"`
	TraceID                string                  `gorm:"column:trace_id;type:varchar(128)"`
	// ProviderPayload is the provider response as received.
	ProviderPayload datatypes.JSON `gorm:"column:provider_payload;type:json"`
	// LocalUpdates is what the sync computed and wrote.
	LocalUpdates datatypes.JSON      `gorm:"column:local_updates;type:json"`
	Status       SyncOperationStatus `gorm:"column:status;type:varchar(32);not null"`
	Error        string              `gorm:"column:error;type:text"`
	CreatedAt    time.Time           `gorm:"index:idx_sync_operations_user_id,priority:2"`
}

func (SyncOperation) TableName() string {
	return "sync_operations"
}
