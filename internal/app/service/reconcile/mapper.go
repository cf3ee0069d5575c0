package reconcile

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/tool"
	"github.com/fatflowers/subsync/pkg/types"
)

// SubscriptionUpdate is the provider state mapped onto the local record shape.
type SubscriptionUpdate struct {
	ProviderSubscriptionID string               `json:"provider_subscription_id"`
	ProviderPlanID         string               `json:"provider_plan_id"`
	PlanType               types.PlanType       `json:"plan_type"`
	Status                 types.ProviderStatus `json:"status"`
	CurrentPeriodStart     *time.Time           `json:"current_period_start"`
	CurrentPeriodEnd       *time.Time           `json:"current_period_end"`
	NextBillingTime        *time.Time           `json:"next_billing_time"`
	CancelAtPeriodEnd      bool                 `json:"cancel_at_period_end"`
	FailedPaymentCount     int                  `json:"failed_payment_count"`
	LastPaymentAmount      *decimal.Decimal     `json:"last_payment_amount"`
	LastPaymentCurrency    string               `json:"last_payment_currency"`
	LastPaymentDate        *time.Time           `json:"last_payment_date"`
	CycleCount             int                  `json:"cycle_count"`
	BillingCycles          json.RawMessage      `json:"billing_cycles"`
	StartTime              *time.Time           `json:"start_time"`
	SyncedAt               time.Time            `json:"synced_at"`
}

// SettingsUpdate is the denormalized projection written onto user settings.
type SettingsUpdate struct {
	UserID             string              `json:"user_id"`
	Plan               types.PlanType      `json:"plan"`
	SubscriptionExpiry *time.Time          `json:"subscription_expiry"`
	PaymentStatus      types.PaymentStatus `json:"payment_status"`
	SubscriptionStatus string              `json:"subscription_status"`
	AutoRenew          bool                `json:"auto_renew"`
	LastPaymentDate    *time.Time          `json:"last_payment_date"`
}

// LocalUpdates is everything one sync computed for local storage.
type LocalUpdates struct {
	Subscription *SubscriptionUpdate `json:"subscription"`
	UserSettings *SettingsUpdate     `json:"user_settings"`
}

// Mapper turns provider payloads into local updates.
type Mapper struct {
	// ProPlanMarker identifies the pro tier inside a provider plan id.
	ProPlanMarker string
	// Location is the zone used for start/end-of-day period bounds.
	Location *time.Location
}

// PlanTypeFor is a substring match on the plan id. Anything without the
// marker is starter.
func (m Mapper) PlanTypeFor(planID string) types.PlanType {
	if m.ProPlanMarker != "" && strings.Contains(planID, m.ProPlanMarker) {
		return types.PlanTypePro
	}
	return types.PlanTypeStarter
}

// DerivePeriod computes the paid period ending the day before next billing:
// end = endOfDay(next - 1 day), start = startOfDay(end - 1 month + 1 day).
// Billing is assumed to be monthly.
func (m Mapper) DerivePeriod(next time.Time) (start, end time.Time) {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	n := next.In(loc)
	end = tool.EndOfDay(n.AddDate(0, 0, -1))
	start = tool.StartOfDay(tool.AddMonthsClamped(end, -1).AddDate(0, 0, 1))
	return start, end
}

// MapSubscription maps the provider subscription onto the local record shape.
func (m Mapper) MapSubscription(sub *paypal.Subscription, syncedAt time.Time) *SubscriptionUpdate {
	upd := &SubscriptionUpdate{
		ProviderSubscriptionID: sub.ID,
		ProviderPlanID:         sub.PlanID,
		PlanType:               m.PlanTypeFor(sub.PlanID),
		Status:                 sub.Status,
		// Only an exact CANCELLED counts; see DESIGN.md open questions.
		CancelAtPeriodEnd: sub.Status == types.ProviderStatusCancelled,
		StartTime:         sub.StartTime,
		SyncedAt:          syncedAt,
	}

	bi := sub.BillingInfo
	if bi == nil {
		return upd
	}
	if bi.NextBillingTime != nil && !bi.NextBillingTime.IsZero() {
		next := *bi.NextBillingTime
		start, end := m.DerivePeriod(next)
		upd.NextBillingTime = &next
		upd.CurrentPeriodStart = &start
		upd.CurrentPeriodEnd = &end
	}
	if bi.FailedPaymentsCount != nil && *bi.FailedPaymentsCount > 0 {
		upd.FailedPaymentCount = *bi.FailedPaymentsCount
	}
	if lp := bi.LastPayment; lp != nil {
		if amount, ok := lp.Amount.Decimal(); ok {
			upd.LastPaymentAmount = &amount
			upd.LastPaymentCurrency = lp.Amount.CurrencyCode
		}
		upd.LastPaymentDate = lp.Time
	}
	upd.CycleCount = bi.CyclesCompleted()
	if len(bi.CycleExecutions) > 0 {
		if raw, err := json.Marshal(bi.CycleExecutions); err == nil {
			upd.BillingCycles = raw
		}
	}
	return upd
}

// ProjectSettings builds the user settings projection for userID.
func (m Mapper) ProjectSettings(userID string, upd *SubscriptionUpdate) *SettingsUpdate {
	return &SettingsUpdate{
		UserID:             userID,
		Plan:               upd.PlanType,
		SubscriptionExpiry: upd.CurrentPeriodEnd,
		PaymentStatus:      types.PaymentStatusFor(upd.Status),
		SubscriptionStatus: upd.Status.Lower(),
		AutoRenew:          upd.Status == types.ProviderStatusActive && !upd.CancelAtPeriodEnd,
		LastPaymentDate:    upd.LastPaymentDate,
	}
}
