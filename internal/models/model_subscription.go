package models

import (
	"time"

	"github.com/fatflowers/subsync/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Subscription is the local mirror of one provider subscription.
// The current subscription of a user is the latest one by CreatedAt.
type Subscription struct {
	ID     string `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_subscriptions_user_created,priority:1" json:"user_id"`
	// ProviderSubscriptionID is immutable once set.
	ProviderSubscriptionID string               `gorm:"column:provider_subscription_id;type:varchar(128);not null;uniqueIndex" json:"provider_subscription_id"`
	ProviderPlanID         string               `gorm:"column:provider_plan_id;type:varchar(128)" json:"provider_plan_id"`
	PlanType               types.PlanType       `gorm:"column:plan_type;type:varchar(32);not null;default:starter" json:"plan_type"`
	Status                 types.ProviderStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CurrentPeriodStart     *time.Time           `gorm:"column:current_period_start" json:"current_period_start"`
	CurrentPeriodEnd       *time.Time           `gorm:"column:current_period_end" json:"current_period_end"`
	// NextBillingTime is nil once the subscription is cancelled.
	NextBillingTime    *time.Time `gorm:"column:next_billing_time" json:"next_billing_time"`
	CancelAtPeriodEnd  bool       `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason;type:varchar(255)" json:"cancellation_reason"`
	// FailedPaymentCount is reset to 0 by the provider on a successful charge.
	FailedPaymentCount  int                  `gorm:"column:failed_payment_count;not null;default:0" json:"failed_payment_count"`
	LastPaymentAmount   *decimal.Decimal     `gorm:"column:last_payment_amount;type:decimal(12,2)" json:"last_payment_amount"`
	LastPaymentCurrency string               `gorm:"column:last_payment_currency;type:varchar(8)" json:"last_payment_currency"`
	LastPaymentDate     *time.Time           `gorm:"column:last_payment_date" json:"last_payment_date"`
	CycleCount          int                  `gorm:"column:cycle_count;not null;default:0" json:"cycle_count"`
	BillingCycles       datatypes.JSON       `gorm:"column:billing_cycles;type:json" json:"billing_cycles"`
	StartTime           *time.Time           `gorm:"column:start_time" json:"start_time"`
	SyncedAt            *time.Time           `gorm:"column:synced_at" json:"synced_at"`
	CreatedAt           time.Time            `gorm:"index:idx_subscriptions_user_created,priority:2" json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// LocalState converts the provider status into the closed local variant.
func (s *Subscription) LocalState() types.LocalState {
	if s == nil {
		return types.LocalStateUnknown
	}
	return types.ToLocalState(s.Status, s.FailedPaymentCount)
}
