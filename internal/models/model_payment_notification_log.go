package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
	PaymentNotificationLogStatusDuplicate    PaymentNotificationLogStatus = "duplicate"
)

// PaymentNotificationLog records inbound provider webhooks.
type PaymentNotificationLog struct {
	ID                     string                       `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	EventID                string                       `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	EventType              string                       `gorm:"column:event_type;type:varchar(128);not null" json:"event_type"`
	ProviderSubscriptionID string                       `gorm:"column:provider_subscription_id;type:varchar(128)" json:"provider_subscription_id"`
	UserID                 *string                      `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID                string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	NotificationTime       time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data                   datatypes.JSON               `gorm:"column:data;type:json" json:"data"`
	Result                 *datatypes.JSON              `gorm:"column:result;type:json" json:"result"`
	Status                 PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt              time.Time                    `json:"created_at"`
	UpdatedAt              time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
