package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/types"
)

var syncNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSyncer(t *testing.T, p *fakeProvider, st *memStore, audit AuditRecorder, now func() time.Time) *Syncer {
	t.Helper()
	s, err := NewSyncer(SyncerOptions{
		Provider: p,
		Store:    st,
		Audit:    audit,
		Mapper:   Mapper{ProPlanMarker: "pro", Location: time.UTC},
		Log:      zap.NewNop().Sugar(),
		Now:      now,
	})
	require.NoError(t, err)
	return s
}

func TestNewSyncer_RequiresCollaborators(t *testing.T) {
	_, err := NewSyncer(SyncerOptions{})
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, ErrConfiguration))
}

func TestSync_HappyPath(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 10), 0)}
	st, audit := newMemStore(), &memAudit{}
	s := newTestSyncer(t, p, st, audit, fixedClock(syncNow))

	res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, syncNow, res.SyncTimestamp)
	assert.NotEmpty(t, res.Subscription)
	require.NotNil(t, res.LocalUpdates)
	assert.Equal(t, types.PlanTypePro, res.LocalUpdates.Subscription.PlanType)
	assert.Equal(t, "u1", res.LocalUpdates.UserSettings.UserID)

	require.NotNil(t, res.Record)
	assert.Equal(t, "u1", res.Record.UserID)
	assert.Equal(t, types.LocalStateActive, res.Record.LocalState())

	subs, settings := st.counts()
	assert.Equal(t, 1, subs)
	assert.Equal(t, 1, settings)
	require.Equal(t, 1, audit.len())
	op := audit.ops[0]
	assert.Equal(t, types.SyncOperationManual, op.OperationType)
	assert.Equal(t, models.SyncOperationStatusSucceeded, op.Status)
	assert.Equal(t, "I-1", op.ProviderSubscriptionID)
	assert.NotEmpty(t, op.ProviderPayload)
	assert.NotEmpty(t, op.LocalUpdates)
}

func TestSync_IsIdempotentExceptSyncedAt(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 10), 1)}
	st := newMemStore()
	clock := syncNow
	s := newTestSyncer(t, p, st, &memAudit{}, func() time.Time { return clock })

	first, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)
	clock = syncNow.Add(time.Hour)
	second, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.LocalUpdates.Subscription.SyncedAt, second.LocalUpdates.Subscription.SyncedAt)
	a, b := *first.LocalUpdates.Subscription, *second.LocalUpdates.Subscription
	a.SyncedAt, b.SyncedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
	assert.Equal(t, first.LocalUpdates.UserSettings, second.LocalUpdates.UserSettings)

	subs, _ := st.counts()
	assert.Equal(t, 1, subs)
}

func TestSync_NoWritesWhenProviderFails(t *testing.T) {
	cases := []struct {
		name   string
		p      *fakeProvider
		marker error
	}{
		{
			name:   "token failure",
			p:      &fakeProvider{tokenErr: paypal.ErrAuthentication},
			marker: ErrProviderAuth,
		},
		{
			name:   "subscription not found",
			p:      &fakeProvider{getErr: &paypal.APIError{StatusCode: 404, Body: `{"name":"RESOURCE_NOT_FOUND"}`}},
			marker: ErrProviderResource,
		},
		{
			name:   "network error",
			p:      &fakeProvider{getErr: paypal.ErrRequest},
			marker: ErrProviderResource,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, audit := newMemStore(), &memAudit{}
			s := newTestSyncer(t, tc.p, st, audit, fixedClock(syncNow))

			res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, cerrors.Is(err, tc.marker))
			assert.NotEmpty(t, Hint(err))

			subs, settings := st.counts()
			assert.Zero(t, subs)
			assert.Zero(t, settings)
			assert.Zero(t, audit.len())
		})
	}
}

func TestSync_ProviderErrorBodyIsSurfaced(t *testing.T) {
	body := `{"name":"RESOURCE_NOT_FOUND","message":"The specified resource does not exist."}`
	p := &fakeProvider{getErr: &paypal.APIError{StatusCode: 404, Body: body}}
	s := newTestSyncer(t, p, newMemStore(), nil, fixedClock(syncNow))

	_, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-404", UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), body)

	var apiErr *paypal.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestSync_InvalidRequest(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow, 0)}
	s := newTestSyncer(t, p, newMemStore(), nil, fixedClock(syncNow))

	for _, req := range []SyncRequest{
		{UserID: "u1"},
		{SubscriptionID: "I-1"},
		{SubscriptionID: "  ", UserID: "u1"},
	} {
		_, err := s.Sync(context.Background(), req)
		require.Error(t, err)
		assert.True(t, cerrors.Is(err, ErrInvalidRequest))
	}
	assert.Zero(t, p.tokenCalls.Load())
}

func TestSync_PrimaryWriteFailureIsFatal(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0)}
	st, audit := newMemStore(), &memAudit{}
	st.subErr = errors.New("connection refused")
	s := newTestSyncer(t, p, st, audit, fixedClock(syncNow))

	_, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, ErrLocalPersistence))

	_, settings := st.counts()
	assert.Zero(t, settings)
	require.Equal(t, 1, audit.len())
	assert.Equal(t, models.SyncOperationStatusFailed, audit.ops[0].Status)
}

func TestSync_SecondaryWriteFailuresAreSwallowed(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0)}
	st := newMemStore()
	st.settingsErr = errors.New("deadlock")
	audit := &memAudit{err: errors.New("disk full")}
	s := newTestSyncer(t, p, st, audit, fixedClock(syncNow))

	res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	subs, _ := st.counts()
	assert.Equal(t, 1, subs)
}

func TestSync_StaleGuardDiscardsResult(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0)}
	st, audit := newMemStore(), &memAudit{}
	s := newTestSyncer(t, p, st, audit, fixedClock(syncNow))

	_, err := s.Sync(context.Background(), SyncRequest{
		SubscriptionID: "I-1",
		UserID:         "u1",
		Operation:      types.SyncOperationPoll,
		Guard:          func() bool { return false },
	})
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, ErrStaleSession))

	subs, settings := st.counts()
	assert.Zero(t, subs)
	assert.Zero(t, settings)
	assert.Zero(t, audit.len())
}

func TestSync_ConcurrentCallsShareOneExecution(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0), block: make(chan struct{})}
	st := newMemStore()
	s := newTestSyncer(t, p, st, &memAudit{}, fixedClock(syncNow))

	var wg sync.WaitGroup
	results := make([]*SyncResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	require.Eventually(t, func() bool { return p.getCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// let the joiners reach the in-flight call before it returns
	time.Sleep(50 * time.Millisecond)
	close(p.block)
	wg.Wait()

	assert.Equal(t, int32(1), p.getCalls.Load())
	for _, r := range results {
		require.NotNil(t, r)
		assert.True(t, r.Success)
	}
}

func TestSync_CallerCancellationDoesNotAbortSync(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0)}
	st := newMemStore()
	s := newTestSyncer(t, p, st, nil, fixedClock(syncNow))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Sync(ctx, SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestSync_WithoutAuditRecorder(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0)}
	st := newMemStore()
	s := newTestSyncer(t, p, st, nil, fixedClock(syncNow))

	res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	subs, settings := st.counts()
	assert.Equal(t, 1, subs)
	assert.Equal(t, 1, settings)
}

func TestSync_ForeignSubscriptionDoesNotProjectSettings(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 10), 0)}
	st, audit := newMemStore(), &memAudit{}
	s := newTestSyncer(t, p, st, audit, fixedClock(syncNow))

	_, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "owner"})
	require.NoError(t, err)

	res, err := s.Sync(context.Background(), SyncRequest{SubscriptionID: "I-1", UserID: "intruder"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "owner", res.Record.UserID)
	assert.Nil(t, res.LocalUpdates.UserSettings)

	st.mu.Lock()
	_, written := st.settings["intruder"]
	owner := st.settings["owner"]
	st.mu.Unlock()
	assert.False(t, written, "settings must not be projected for a non-owner")
	require.NotNil(t, owner)

	require.Equal(t, 2, audit.len())
	op := audit.ops[1]
	assert.Equal(t, "intruder", op.UserID)
	assert.Equal(t, models.SyncOperationStatusSucceeded, op.Status)
	assert.Contains(t, op.Error, "owned by another user")
}

func TestSync_SessionsDoNotShareCalls(t *testing.T) {
	p := &fakeProvider{sub: activeSubscription(syncNow.AddDate(0, 0, 3), 0), block: make(chan struct{})}
	st := newMemStore()
	s := newTestSyncer(t, p, st, &memAudit{}, fixedClock(syncNow))

	var oldCurrent atomic.Bool
	oldCurrent.Store(true)
	oldErr := make(chan error, 1)
	go func() {
		_, err := s.Sync(context.Background(), SyncRequest{
			SubscriptionID: "I-1", UserID: "u1", Operation: types.SyncOperationPoll,
			Session: "poll-old", Guard: oldCurrent.Load,
		})
		oldErr <- err
	}()
	require.Eventually(t, func() bool { return p.getCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// the old handle is replaced while its call is in flight
	oldCurrent.Store(false)
	newErr := make(chan error, 1)
	go func() {
		_, err := s.Sync(context.Background(), SyncRequest{
			SubscriptionID: "I-1", UserID: "u1", Operation: types.SyncOperationPoll,
			Session: "poll-new", Guard: func() bool { return true },
		})
		newErr <- err
	}()
	require.Eventually(t, func() bool { return p.getCalls.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(p.block)

	assert.True(t, cerrors.Is(<-oldErr, ErrStaleSession))
	assert.NoError(t, <-newErr)
	subs, _ := st.counts()
	assert.Equal(t, 1, subs)
}
