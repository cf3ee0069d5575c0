package models

import (
	"time"

	"github.com/fatflowers/subsync/pkg/types"
)

// UserSettings carries a denormalized copy of subscription facts so readers
// do not have to join the subscriptions table.
type UserSettings struct {
	UserID             string              `gorm:"column:user_id;type:varchar(64);primaryKey" json:"user_id"`
	Plan               types.PlanType      `gorm:"column:plan;type:varchar(32)" json:"plan"`
	SubscriptionExpiry *time.Time          `gorm:"column:subscription_expiry" json:"subscription_expiry"`
	PaymentStatus      types.PaymentStatus `gorm:"column:payment_status;type:varchar(32)" json:"payment_status"`
	SubscriptionStatus string              `gorm:"column:subscription_status;type:varchar(64)" json:"subscription_status"`
	AutoRenew          bool                `gorm:"column:auto_renew;not null;default:false" json:"auto_renew"`
	LastPaymentDate    *time.Time          `gorm:"column:last_payment_date" json:"last_payment_date"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
