package reconcile

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/metrics"
	"github.com/fatflowers/subsync/pkg/tool"
	"github.com/fatflowers/subsync/pkg/types"
)

// Provider is the billing provider surface a sync needs. A fresh token is
// requested for every sync.
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
	GetSubscription(ctx context.Context, accessToken, subscriptionID string) (*paypal.Subscription, error)
}

// Store persists sync results. Each method must be a single atomic write of
// one record.
type Store interface {
	UpsertSubscription(ctx context.Context, userID string, upd *SubscriptionUpdate) (*models.Subscription, error)
	UpsertUserSettings(ctx context.Context, upd *SettingsUpdate) error
}

// AuditRecorder persists sync audit rows.
type AuditRecorder interface {
	Save(ctx context.Context, op *models.SyncOperation) error
}

// Guard reports whether the session that started a sync is still current.
// Results of a sync whose guard returns false are discarded before any write.
type Guard func() bool

type SyncRequest struct {
	SubscriptionID string
	UserID         string
	Operation      types.SyncOperationType
	// Session scopes call sharing to one caller session, such as a poll
	// handle, so a replaced session never joins its predecessor's call.
	Session string
	Guard   Guard
}

type SyncResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Subscription  json.RawMessage `json:"subscription"`
	LocalUpdates  *LocalUpdates   `json:"local_updates"`
	SyncTimestamp time.Time       `json:"sync_timestamp"`

	// Record is the persisted subscription row after the upsert.
	Record *models.Subscription `json:"-"`
}

type Syncer struct {
	provider Provider
	store    Store
	audit    AuditRecorder
	mapper   Mapper
	log      *zap.SugaredLogger
	now      tool.Clock
	metrics  *metrics.SyncMetrics
	group    singleflight.Group
}

type SyncerOptions struct {
	Provider Provider
	Store    Store
	Audit    AuditRecorder
	Mapper   Mapper
	Log      *zap.SugaredLogger
	Now      tool.Clock
	Metrics  *metrics.SyncMetrics
}

func NewSyncer(opts SyncerOptions) (*Syncer, error) {
	if opts.Provider == nil || opts.Store == nil {
		return nil, errors.Wrap(ErrConfiguration, "sync: provider and store are required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = tool.SystemClock
	}
	return &Syncer{
		provider: opts.Provider,
		store:    opts.Store,
		audit:    opts.Audit,
		mapper:   opts.Mapper,
		log:      opts.Log,
		now:      opts.Now,
		metrics:  opts.Metrics,
	}, nil
}

// Sync pulls the subscription from the provider and writes it locally.
// Concurrent calls for the same operation, subscription, user and session
// share one execution. A sync that has started is not cancelled by its caller going
// away; the provider client timeout bounds it instead.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	req.SubscriptionID = strings.TrimSpace(req.SubscriptionID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.SubscriptionID == "" || req.UserID == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("subscription_id and user_id are required"), ErrInvalidRequest),
			"Missing subscription or user id.",
		)
	}
	if req.Operation == "" {
		req.Operation = types.SyncOperationManual
	}

	key := strings.Join([]string{string(req.Operation), req.SubscriptionID, req.UserID, req.Session}, "|")
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.sync(context.WithoutCancel(ctx), req)
	})
	if shared {
		logctx.FromCtx(ctx, s.log).Debugw("sync joined in-flight call", "subscription_id", req.SubscriptionID)
	}
	if err != nil {
		return nil, err
	}
	return v.(*SyncResult), nil
}

func (s *Syncer) sync(ctx context.Context, req SyncRequest) (result *SyncResult, err error) {
	log := logctx.FromCtx(ctx, s.log).With(
		"subscription_id", req.SubscriptionID,
		"user_id", req.UserID,
		"operation", req.Operation,
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrStaleSession):
			outcome = "stale"
		case err != nil:
			outcome = "error"
		}
		s.metrics.Observe(string(req.Operation), outcome, start)
	}()

	token, err := s.provider.AccessToken(ctx)
	if err != nil {
		log.Warnf("sync: token request failed: %v", err)
		return nil, markProviderAuth(err)
	}
	payload, err := s.provider.GetSubscription(ctx, token, req.SubscriptionID)
	if err != nil {
		log.Warnf("sync: subscription retrieval failed: %v", err)
		return nil, markProviderResource(err, req.SubscriptionID)
	}

	syncedAt := s.now()
	upd := s.mapper.MapSubscription(payload, syncedAt)
	settings := s.mapper.ProjectSettings(req.UserID, upd)
	local := &LocalUpdates{Subscription: upd, UserSettings: settings}

	if req.Guard != nil && !req.Guard() {
		log.Infow("sync: session no longer current, discarding result")
		return nil, errors.Mark(errors.Newf("sync of %s discarded", req.SubscriptionID), ErrStaleSession)
	}

	rec, err := s.store.UpsertSubscription(ctx, req.UserID, upd)
	if err != nil {
		log.Errorf("sync: subscription write failed: %v", err)
		err = markPersistence(err, "subscription")
		s.recordAudit(ctx, log, req, payload, local, err)
		return nil, err
	}

	message := "Subscription synced successfully"
	var auditNote error
	if rec != nil && rec.UserID != "" && rec.UserID != req.UserID {
		// the record keeps its owner; its state must not reach the caller's settings
		log.Warnw("sync: subscription owned by another user, settings not projected", "owner_user_id", rec.UserID)
		local.UserSettings = nil
		message = "Subscription synced; user settings not updated because the subscription belongs to another user"
		auditNote = errors.Mark(errors.Newf("subscription %s is owned by another user", req.SubscriptionID), ErrOwnerMismatch)
	} else if err := s.store.UpsertUserSettings(ctx, settings); err != nil {
		log.Warnf("sync: user settings write failed, continuing: %v", err)
	}
	s.recordAudit(ctx, log, req, payload, local, auditNote)

	log.Infow("sync: completed", "status", upd.Status, "failed_payment_count", upd.FailedPaymentCount)
	return &SyncResult{
		Success:       true,
		Message:       message,
		Subscription:  rawPayload(payload),
		LocalUpdates:  local,
		SyncTimestamp: syncedAt,
		Record:        rec,
	}, nil
}

func (s *Syncer) recordAudit(ctx context.Context, log *zap.SugaredLogger, req SyncRequest, payload *paypal.Subscription, local *LocalUpdates, syncErr error) {
	if s.audit == nil {
		return
	}
	op := &models.SyncOperation{
		UserID:                 req.UserID,
		ProviderSubscriptionID: req.SubscriptionID,
		OperationType:          req.Operation,
		TraceID:                logctx.TraceID(ctx),
		ProviderPayload:        []byte(rawPayload(payload)),
		Status:                 models.SyncOperationStatusSucceeded,
	}
	if b, err := json.Marshal(local); err == nil {
		op.LocalUpdates = b
	}
	switch {
	case errors.Is(syncErr, ErrOwnerMismatch):
		op.Error = syncErr.Error()
	case syncErr != nil:
		op.Status = models.SyncOperationStatusFailed
		op.Error = syncErr.Error()
	}
	if err := s.audit.Save(ctx, op); err != nil {
		log.Warnf("sync: audit write failed, continuing: %v", err)
	}
}

func rawPayload(p *paypal.Subscription) json.RawMessage {
	if p == nil {
		return nil
	}
	if len(p.Raw) > 0 {
		return p.Raw
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return b
}
