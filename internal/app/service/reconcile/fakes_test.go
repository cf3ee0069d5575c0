package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/internal/platform/paypal"
)

type fakeProvider struct {
	tokenErr error
	getErr   error
	sub      *paypal.Subscription

	// block, when set, makes GetSubscription wait until it is closed.
	block chan struct{}

	tokenCalls atomic.Int32
	getCalls   atomic.Int32
}

func (f *fakeProvider) AccessToken(context.Context) (string, error) {
	f.tokenCalls.Add(1)
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok", nil
}

func (f *fakeProvider) GetSubscription(_ context.Context, token, id string) (*paypal.Subscription, error) {
	f.getCalls.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	if token != "tok" {
		return nil, errors.New("bad token")
	}
	cp := *f.sub
	cp.ID = id
	return &cp, nil
}

type memStore struct {
	mu       sync.Mutex
	subs     map[string]*models.Subscription
	settings map[string]*SettingsUpdate

	subErr      error
	settingsErr error
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]*models.Subscription{}, settings: map[string]*SettingsUpdate{}}
}

func (m *memStore) UpsertSubscription(_ context.Context, userID string, upd *SubscriptionUpdate) (*models.Subscription, error) {
	if m.subErr != nil {
		return nil, m.subErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subs[upd.ProviderSubscriptionID]
	if !ok {
		rec = &models.Subscription{ID: "rec-" + upd.ProviderSubscriptionID, UserID: userID, ProviderSubscriptionID: upd.ProviderSubscriptionID}
		m.subs[upd.ProviderSubscriptionID] = rec
	}
	syncedAt := upd.SyncedAt
	rec.ProviderPlanID = upd.ProviderPlanID
	rec.PlanType = upd.PlanType
	rec.Status = upd.Status
	rec.CurrentPeriodStart = upd.CurrentPeriodStart
	rec.CurrentPeriodEnd = upd.CurrentPeriodEnd
	rec.NextBillingTime = upd.NextBillingTime
	rec.CancelAtPeriodEnd = upd.CancelAtPeriodEnd
	rec.FailedPaymentCount = upd.FailedPaymentCount
	rec.SyncedAt = &syncedAt
	cp := *rec
	return &cp, nil
}

func (m *memStore) UpsertUserSettings(_ context.Context, upd *SettingsUpdate) error {
	if m.settingsErr != nil {
		return m.settingsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *upd
	m.settings[upd.UserID] = &cp
	return nil
}

func (m *memStore) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs), len(m.settings)
}

type memAudit struct {
	mu  sync.Mutex
	ops []*models.SyncOperation
	err error
}

func (a *memAudit) Save(_ context.Context, op *models.SyncOperation) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ops = append(a.ops, op)
	return nil
}

func (a *memAudit) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ops)
}

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func activeSubscription(next time.Time, failed int) *paypal.Subscription {
	raw, _ := json.Marshal(map[string]any{"id": "I-TEST", "status": "ACTIVE"})
	return &paypal.Subscription{
		Status: "ACTIVE",
		PlanID: "P-pro-monthly",
		BillingInfo: &paypal.BillingInfo{
			NextBillingTime:     &next,
			FailedPaymentsCount: ptr(failed),
			LastPayment: &paypal.LastPayment{
				Amount: &paypal.Money{CurrencyCode: "USD", Value: "19.99"},
				Time:   ptr(next.AddDate(0, -1, 0)),
			},
			CycleExecutions: []paypal.CycleExecution{{TenureType: "REGULAR", Sequence: 1, CyclesCompleted: 4}},
		},
		Raw: raw,
	}
}
