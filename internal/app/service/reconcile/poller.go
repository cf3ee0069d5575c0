package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/tool"
	"github.com/fatflowers/subsync/pkg/types"
)

// DefaultPollInterval is used when the configured interval is not positive.
const DefaultPollInterval = 5 * time.Minute

// syncFunc is the slice of Syncer the poller drives.
type syncFunc func(ctx context.Context, req SyncRequest) (*SyncResult, error)

// PollHandle controls one periodic sync loop.
type PollHandle struct {
	UserID         string
	SubscriptionID string

	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// Stop cancels the loop. It is safe to call more than once and does not
// wait for a sync in flight; that sync's result is discarded.
func (h *PollHandle) Stop() {
	if h == nil {
		return
	}
	if h.stopped.CompareAndSwap(false, true) {
		h.cancel()
	}
}

// Done is closed once the loop has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Current reports whether the handle has not been stopped.
func (h *PollHandle) Current() bool {
	return h != nil && !h.stopped.Load()
}

// Poller runs one periodic poll_sync per user.
type Poller struct {
	sync     syncFunc
	interval time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	handles map[string]*PollHandle
}

func NewPoller(syncer *Syncer, interval time.Duration, log *zap.SugaredLogger) *Poller {
	return newPoller(syncer.Sync, interval, log)
}

func newPoller(fn syncFunc, interval time.Duration, log *zap.SugaredLogger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Poller{sync: fn, interval: interval, log: log, handles: map[string]*PollHandle{}}
}

// Start begins polling subscriptionID on behalf of userID. A poll already
// running for userID is stopped first.
func (p *Poller) Start(userID, subscriptionID string) *PollHandle {
	id := "poll-" + tool.GenerateUUIDV7()
	ctx, cancel := context.WithCancel(logctx.WithTraceID(context.Background(), id))
	h := &PollHandle{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		id:             id,
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.handles[userID]
	p.handles[userID] = h
	p.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	go p.run(ctx, h)
	return h
}

// Stop stops the poll for userID. It reports whether one was running.
func (p *Poller) Stop(userID string) bool {
	p.mu.Lock()
	h, ok := p.handles[userID]
	delete(p.handles, userID)
	p.mu.Unlock()
	if !ok {
		return false
	}
	h.Stop()
	return true
}

// StopAll stops every running poll.
func (p *Poller) StopAll() {
	p.mu.Lock()
	handles := p.handles
	p.handles = map[string]*PollHandle{}
	p.mu.Unlock()
	for _, h := range handles {
		h.Stop()
	}
}

// Active returns the number of running polls.
func (p *Poller) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

func (p *Poller) run(ctx context.Context, h *PollHandle) {
	defer close(h.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log := logctx.FromCtx(ctx, p.log).With("user_id", h.UserID, "subscription_id", h.SubscriptionID)
	log.Infow("poll_started", "interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			log.Infow("poll_stopped")
			return
		case <-ticker.C:
			_, err := p.sync(ctx, SyncRequest{
				SubscriptionID: h.SubscriptionID,
				UserID:         h.UserID,
				Operation:      types.SyncOperationPoll,
				Session:        h.id,
				Guard:          h.Current,
			})
			switch {
			case err == nil:
			case errors.Is(err, ErrStaleSession):
				log.Debugw("poll_result_discarded")
			default:
				log.Warnf("poll sync failed: %v", err)
			}
		}
	}
}
