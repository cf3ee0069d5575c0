package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/types"
)

func TestMapper_PlanTypeFor(t *testing.T) {
	m := Mapper{ProPlanMarker: "pro"}
	cases := map[string]types.PlanType{
		"P-pro-monthly":     types.PlanTypePro,
		"P-starter-monthly": types.PlanTypeStarter,
		"P-PRO":             types.PlanTypeStarter,
		"":                  types.PlanTypeStarter,
		// substring match: any id containing the marker is pro
		"P-professional": types.PlanTypePro,
	}
	for planID, want := range cases {
		assert.Equal(t, want, m.PlanTypeFor(planID), planID)
	}
	assert.Equal(t, types.PlanTypeStarter, Mapper{}.PlanTypeFor("P-pro"))
}

func TestMapper_DerivePeriod(t *testing.T) {
	m := Mapper{Location: time.UTC}

	start, end := m.DerivePeriod(time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 2, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), start)

	// end falls on Mar 30; one month back is Feb 28 (clamped), plus a day
	start, end = m.DerivePeriod(time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestMapper_DerivePeriod_StartBeforeEndBeforeNextBilling(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, loc := range []*time.Location{time.UTC, ny} {
		m := Mapper{Location: loc}
		for i := 0; i < 800; i++ {
			next := base.Add(time.Duration(i) * 13 * time.Hour)
			start, end := m.DerivePeriod(next)
			require.Truef(t, start.Before(end), "start %s end %s", start, end)
			require.Truef(t, end.Before(next), "end %s next %s", end, next)
		}
	}
}

func TestMapper_MapSubscription(t *testing.T) {
	m := Mapper{ProPlanMarker: "pro", Location: time.UTC}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	next := now.AddDate(0, 0, 10)

	sub := activeSubscription(next, 1)
	sub.ID = "I-1"
	upd := m.MapSubscription(sub, now)

	assert.Equal(t, "I-1", upd.ProviderSubscriptionID)
	assert.Equal(t, types.PlanTypePro, upd.PlanType)
	assert.Equal(t, types.ProviderStatusActive, upd.Status)
	assert.False(t, upd.CancelAtPeriodEnd)
	assert.Equal(t, 1, upd.FailedPaymentCount)
	require.NotNil(t, upd.NextBillingTime)
	assert.True(t, upd.NextBillingTime.Equal(next))
	require.NotNil(t, upd.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 5, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), *upd.CurrentPeriodEnd)
	require.NotNil(t, upd.LastPaymentAmount)
	assert.Equal(t, "19.99", upd.LastPaymentAmount.StringFixed(2))
	assert.Equal(t, "USD", upd.LastPaymentCurrency)
	assert.Equal(t, 4, upd.CycleCount)
	assert.NotEmpty(t, upd.BillingCycles)
	assert.Equal(t, now, upd.SyncedAt)
}

func TestMapper_MapSubscription_MissingBillingInfo(t *testing.T) {
	m := Mapper{ProPlanMarker: "pro"}
	upd := m.MapSubscription(&paypal.Subscription{ID: "I-2", Status: "CANCELLED", PlanID: "P-basic"}, time.Now())

	assert.True(t, upd.CancelAtPeriodEnd)
	assert.Equal(t, 0, upd.FailedPaymentCount)
	assert.Nil(t, upd.NextBillingTime)
	assert.Nil(t, upd.CurrentPeriodEnd)
	assert.Nil(t, upd.LastPaymentAmount)
	assert.Equal(t, types.PlanTypeStarter, upd.PlanType)
}

func TestMapper_CancelFlagOnlyForExactCancelled(t *testing.T) {
	m := Mapper{}
	for status, want := range map[types.ProviderStatus]bool{
		"CANCELLED": true,
		"cancelled": false,
		"EXPIRED":   false,
		"SUSPENDED": false,
	} {
		upd := m.MapSubscription(&paypal.Subscription{ID: "I", Status: status}, time.Now())
		assert.Equal(t, want, upd.CancelAtPeriodEnd, status)
	}
}

func TestMapper_ProjectSettings(t *testing.T) {
	m := Mapper{ProPlanMarker: "pro", Location: time.UTC}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	active := m.MapSubscription(activeSubscription(now.AddDate(0, 0, 10), 0), now)
	s := m.ProjectSettings("u1", active)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, types.PlanTypePro, s.Plan)
	assert.Equal(t, types.PaymentStatusActive, s.PaymentStatus)
	assert.Equal(t, "active", s.SubscriptionStatus)
	assert.True(t, s.AutoRenew)
	assert.Equal(t, active.CurrentPeriodEnd, s.SubscriptionExpiry)

	suspended := m.MapSubscription(&paypal.Subscription{ID: "I", Status: "SUSPENDED"}, now)
	s = m.ProjectSettings("u1", suspended)
	assert.Equal(t, types.PaymentStatusFailed, s.PaymentStatus)
	assert.Equal(t, "suspended", s.SubscriptionStatus)
	assert.False(t, s.AutoRenew)

	cancelled := m.MapSubscription(&paypal.Subscription{ID: "I", Status: "CANCELLED"}, now)
	s = m.ProjectSettings("u1", cancelled)
	assert.Equal(t, types.PaymentStatusCancelled, s.PaymentStatus)
	assert.False(t, s.AutoRenew)
}
