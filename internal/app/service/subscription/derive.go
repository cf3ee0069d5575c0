package subscription

import (
	"time"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/tool"
	"github.com/fatflowers/subsync/pkg/types"
)

// DerivedStatus is recomputed on every read and never persisted.
// Day counts are nil when the underlying date is unknown.
type DerivedStatus struct {
	State                        types.LocalState `json:"state"`
	IsActive                     bool             `json:"is_active"`
	IsCancelled                  bool             `json:"is_cancelled"`
	IsExpired                    bool             `json:"is_expired"`
	HasFailedPayments            bool             `json:"has_failed_payments"`
	DaysUntilRenewal             *int             `json:"days_until_renewal"`
	DaysUntilExpiry              *int             `json:"days_until_expiry"`
	RiskLevel                    types.RiskLevel  `json:"risk_level"`
	ShouldShowRenewalNotice      bool             `json:"should_show_renewal_notice"`
	ShouldShowCancellationNotice bool             `json:"should_show_cancellation_notice"`
}

// DeriveStatus computes UI-facing status for rec at now. It never panics:
// a nil record yields an unknown, low-risk status.
func DeriveStatus(rec *models.Subscription, now time.Time) DerivedStatus {
	if rec == nil {
		return DerivedStatus{State: types.LocalStateUnknown, RiskLevel: types.RiskLevelLow}
	}

	failed := failedCount(rec)
	d := DerivedStatus{
		State:                   types.ToLocalState(rec.Status, failed),
		IsActive:                rec.Status == types.ProviderStatusActive,
		IsCancelled:             rec.CancelAtPeriodEnd || rec.CancelledAt != nil,
		HasFailedPayments:       failed > 0,
		RiskLevel:               RiskLevelFor(failed),
		ShouldShowRenewalNotice: rec.Status == types.ProviderStatusActive && !rec.CancelAtPeriodEnd,
	}

	if rec.NextBillingTime != nil {
		d.DaysUntilRenewal = daysUntil(*rec.NextBillingTime, now)
	}
	if rec.CurrentPeriodEnd != nil {
		end := *rec.CurrentPeriodEnd
		d.DaysUntilExpiry = daysUntil(end, now)
		d.IsExpired = now.After(end)
		d.ShouldShowCancellationNotice = rec.CancelAtPeriodEnd && now.Before(end)
	}
	return d
}

// RiskLevelFor maps a failed-payment count to a risk level. It is
// non-decreasing in failed.
func RiskLevelFor(failed int) types.RiskLevel {
	switch {
	case failed >= 2:
		return types.RiskLevelHigh
	case failed >= 1:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}

func failedCount(rec *models.Subscription) int {
	if rec == nil || rec.FailedPaymentCount < 0 {
		return 0
	}
	return rec.FailedPaymentCount
}

func daysUntil(t, now time.Time) *int {
	if t.IsZero() {
		return nil
	}
	n := tool.CeilDays(t.Sub(now))
	return &n
}
