package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/subsync/pkg/types"
)

type recordingSync struct {
	mu    sync.Mutex
	reqs  []SyncRequest
	calls atomic.Int32
}

func (r *recordingSync) fn(_ context.Context, req SyncRequest) (*SyncResult, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	if req.Guard != nil && !req.Guard() {
		return nil, ErrStaleSession
	}
	return &SyncResult{Success: true}, nil
}

func TestPoller_RunsPollSyncsUntilStopped(t *testing.T) {
	rec := &recordingSync{}
	p := newPoller(rec.fn, 10*time.Millisecond, nil)

	h := p.Start("u1", "I-1")
	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, p.Active())

	require.True(t, p.Stop("u1"))
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("poll loop did not exit")
	}
	assert.False(t, h.Current())
	assert.Equal(t, 0, p.Active())

	after := rec.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, rec.calls.Load())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, req := range rec.reqs {
		assert.Equal(t, types.SyncOperationPoll, req.Operation)
		assert.Equal(t, "I-1", req.SubscriptionID)
		assert.Equal(t, "u1", req.UserID)
		assert.NotNil(t, req.Guard)
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := newPoller((&recordingSync{}).fn, time.Hour, nil)
	h := p.Start("u1", "I-1")
	h.Stop()
	h.Stop()
	<-h.Done()
	assert.False(t, p.Stop("nobody"))
}

func TestPoller_StartReplacesExistingPoll(t *testing.T) {
	p := newPoller((&recordingSync{}).fn, time.Hour, nil)
	first := p.Start("u1", "I-1")
	second := p.Start("u1", "I-2")

	<-first.Done()
	assert.False(t, first.Current())
	assert.True(t, second.Current())
	assert.Equal(t, 1, p.Active())

	p.StopAll()
	<-second.Done()
	assert.Equal(t, 0, p.Active())
}

func TestPoller_GuardTurnsFalseAfterStop(t *testing.T) {
	p := newPoller((&recordingSync{}).fn, time.Hour, nil)
	h := p.Start("u1", "I-1")
	guard := Guard(h.Current)
	assert.True(t, guard())
	h.Stop()
	assert.False(t, guard())
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := newPoller((&recordingSync{}).fn, 0, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)
}

func TestPoller_ReplacedHandleUsesNewSession(t *testing.T) {
	rec := &recordingSync{}
	p := newPoller(rec.fn, 5*time.Millisecond, nil)
	defer p.StopAll()

	first := p.Start("u1", "I-1")
	require.Eventually(t, func() bool { return rec.calls.Load() >= 1 }, time.Second, time.Millisecond)
	second := p.Start("u1", "I-1")
	<-first.Done()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.reqs[len(rec.reqs)-1].Session == second.id
	}, time.Second, time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NotEmpty(t, first.id)
	assert.NotEqual(t, first.id, second.id)
	assert.Equal(t, first.id, rec.reqs[0].Session)
}
