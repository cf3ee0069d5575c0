package subscription

import (
	"time"

	"github.com/fatflowers/subsync/internal/models"
)

// MaxFailures is the failed-charge count at which a subscription stops being
// in grace and is treated as critically at risk.
const MaxFailures = 3

// RetrySchedule holds estimated day offsets from now for retry attempts
// 1, 2 and 3. It is a local estimate of the provider's dunning cadence, not
// read from the provider.
var RetrySchedule = []int{1, 3, 5}

// IsInGracePeriod reports whether failed is strictly between 0 and MaxFailures.
func IsInGracePeriod(failed int) bool {
	return failed > 0 && failed < MaxFailures
}

// RemainingAttempts never goes below zero.
func RemainingAttempts(failed int) int {
	if failed < 0 {
		failed = 0
	}
	return max(MaxFailures-failed, 0)
}

// EstimatedRetries returns now+RetrySchedule[failed] and now+RetrySchedule[failed+1]
// when those entries exist. Nothing is returned for failed <= 0.
func EstimatedRetries(failed int, now time.Time) []time.Time {
	if failed <= 0 {
		return nil
	}
	var out []time.Time
	for _, idx := range []int{failed, failed + 1} {
		if idx < len(RetrySchedule) {
			out = append(out, now.AddDate(0, 0, RetrySchedule[idx]))
		}
	}
	return out
}

type BannerKind string

const (
	BannerNone         BannerKind = "none"
	BannerGracePeriod  BannerKind = "grace_period"
	BannerCritical     BannerKind = "critical"
	BannerCancellation BannerKind = "cancellation"
)

// Capability is something the subscriber keeps during the grace period.
type Capability string

const (
	CapabilityFeatureAccess Capability = "continued_feature_access"
	CapabilityNoDataLoss    Capability = "no_data_loss"
	CapabilityAutoRetry     Capability = "continued_auto_retry"
)

var graceCapabilities = []Capability{CapabilityFeatureAccess, CapabilityNoDataLoss, CapabilityAutoRetry}

// Banner is the presentation decision for payment-risk messaging.
type Banner struct {
	Kind               BannerKind   `json:"kind"`
	Title              string       `json:"title,omitempty"`
	Message            string       `json:"message,omitempty"`
	FailedPaymentCount int          `json:"failed_payment_count"`
	RemainingAttempts  int          `json:"remaining_attempts"`
	Capabilities       []Capability `json:"capabilities,omitempty"`
	EstimatedRetries   []time.Time  `json:"estimated_retries,omitempty"`
	// ActiveUntil is the end of the paid period, when known.
	ActiveUntil *time.Time `json:"active_until,omitempty"`
	// Actions are user-initiated steps; the service never retries on its own.
	Actions []string `json:"actions,omitempty"`
}

const (
	ActionUpdatePaymentMethod = "update_payment_method"
	ActionSyncStatus          = "sync_status"
)

// BuildBanner decides which banner, if any, to show for rec at now.
func BuildBanner(rec *models.Subscription, now time.Time) Banner {
	failed := failedCount(rec)
	b := Banner{
		Kind:               BannerNone,
		FailedPaymentCount: failed,
		RemainingAttempts:  RemainingAttempts(failed),
	}
	if rec == nil {
		return b
	}
	b.ActiveUntil = rec.CurrentPeriodEnd

	switch {
	case failed >= MaxFailures:
		b.Kind = BannerCritical
		b.Title = "Subscription at risk of suspension"
		b.Message = "All automatic payment retries have failed. Update your payment method with the billing provider, then sync your subscription status to restore it."
		b.Actions = []string{ActionUpdatePaymentMethod, ActionSyncStatus}
	case IsInGracePeriod(failed):
		b.Kind = BannerGracePeriod
		b.Title = "Payment failed: grace period active"
		b.Message = "Your last payment did not go through. You keep full access while the billing provider retries the charge."
		b.Capabilities = graceCapabilities
		b.EstimatedRetries = EstimatedRetries(failed, now)
		b.Actions = []string{ActionUpdatePaymentMethod, ActionSyncStatus}
	case rec.CancelAtPeriodEnd && rec.CurrentPeriodEnd != nil && now.Before(*rec.CurrentPeriodEnd):
		b.Kind = BannerCancellation
		b.Title = "Subscription cancelled"
		b.Message = "Your subscription stays active until the end of the current billing period."
	}
	return b
}
