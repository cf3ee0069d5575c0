package notification_handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/pkg/logctx"
	"github.com/fatflowers/subsync/pkg/tool"
	"github.com/fatflowers/subsync/pkg/types"
)

// ErrUnknownOwner is returned when an event names neither a user nor a
// subscription we already know.
var ErrUnknownOwner = errors.New("cannot resolve subscription owner")

type Syncer interface {
	Sync(ctx context.Context, req reconcile.SyncRequest) (*reconcile.SyncResult, error)
}

type SubscriptionLookup interface {
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error)
}

type TransactionAppender interface {
	Append(ctx context.Context, tx *models.PaymentTransaction) (bool, error)
}

type NotificationLogger interface {
	Save(ctx context.Context, log *models.PaymentNotificationLog)
}

// HandleResult summarizes what a webhook delivery did.
type HandleResult struct {
	EventID            string                    `json:"event_id"`
	EventType          string                    `json:"event_type"`
	Duplicate          bool                      `json:"duplicate"`
	Synced             bool                      `json:"synced"`
	TransactionCreated bool                      `json:"transaction_created"`
	Transaction        *models.PaymentTransaction `json:"transaction,omitempty"`
}

type NotificationHandler struct {
	notifSvc NotificationLogger
	subSvc   SubscriptionLookup
	txSvc    TransactionAppender
	syncer   Syncer
	seen     *cache.Cache
	now      tool.Clock
	Logger   *zap.SugaredLogger
}

type Options struct {
	Notifications NotificationLogger
	Subscriptions SubscriptionLookup
	Transactions  TransactionAppender
	Syncer        Syncer
	DedupeTTL     time.Duration
	Now           tool.Clock
	Logger        *zap.SugaredLogger
}

func NewNotificationHandler(opts Options) *NotificationHandler {
	if opts.DedupeTTL <= 0 {
		opts.DedupeTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = tool.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &NotificationHandler{
		notifSvc: opts.Notifications,
		subSvc:   opts.Subscriptions,
		txSvc:    opts.Transactions,
		syncer:   opts.Syncer,
		seen:     cache.New(opts.DedupeTTL, opts.DedupeTTL/2),
		now:      opts.Now,
		Logger:   opts.Logger,
	}
}

// HandleNotification processes one PayPal webhook delivery. Deliveries with
// an event id seen within the dedupe window are acknowledged and skipped.
// A failed delivery is forgotten so the provider's redelivery is processed.
func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) (result *HandleResult, resErr error) {
	parser, err := GetPayPalNotificationParser(body, h.now())
	if err != nil {
		return nil, err
	}
	log := logctx.FromCtx(ctx, h.Logger)

	eventID := parser.GetEventID(ctx)
	subscriptionID := parser.GetSubscriptionID(ctx)
	result = &HandleResult{EventID: eventID, EventType: parser.GetEventType(ctx)}
	dataBytes, _ := json.Marshal(parser.GetData(ctx))

	logEntry := func(status models.PaymentNotificationLogStatus, userID string, res any) *models.PaymentNotificationLog {
		entry := &models.PaymentNotificationLog{
			EventID:                eventID,
			EventType:              result.EventType,
			ProviderSubscriptionID: subscriptionID,
			UserID:                 lo.EmptyableToPtr(userID),
			TraceID:                logctx.TraceID(ctx),
			NotificationTime:       parser.GetNotificationTime(ctx),
			Data:                   datatypes.JSON(dataBytes),
			Status:                 status,
		}
		if res != nil {
			if b, err := json.Marshal(res); err == nil {
				j := datatypes.JSON(b)
				entry.Result = &j
			}
		}
		return entry
	}

	if err := h.seen.Add(eventID, struct{}{}, cache.DefaultExpiration); err != nil {
		log.Infow("webhook_duplicate_event", "event_id", eventID, "event_type", result.EventType)
		result.Duplicate = true
		h.saveLog(ctx, logEntry(models.PaymentNotificationLogStatusDuplicate, "", nil))
		return result, nil
	}

	userID, _ := parser.GetUserID(ctx)
	h.saveLog(ctx, logEntry(models.PaymentNotificationLogStatusReceived, userID, nil))

	defer func() {
		status := models.PaymentNotificationLogStatusHandled
		res := map[string]any{"result": result}
		if resErr != nil {
			h.seen.Delete(eventID)
			status = models.PaymentNotificationLogStatusHandleFailed
			res["error"] = resErr.Error()
		}
		h.saveLog(ctx, logEntry(status, userID, res))
	}()

	if userID == "" && subscriptionID != "" && h.subSvc != nil {
		rec, err := h.subSvc.GetByProviderSubscriptionID(ctx, subscriptionID)
		if err != nil {
			return result, fmt.Errorf("failed to resolve subscription owner: %w", err)
		}
		if rec != nil {
			userID = rec.UserID
		}
	}

	txn, err := parser.GetTransaction(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to get transaction: %w", err)
	}
	needsOwner := txn != nil || parser.TriggersSync(ctx)
	if !needsOwner {
		log.Infow("webhook_event_ignored", "event_type", result.EventType)
		return result, nil
	}
	if userID == "" {
		return result, fmt.Errorf("%w: event %s subscription %q", ErrUnknownOwner, eventID, subscriptionID)
	}

	if txn != nil && h.txSvc != nil {
		txn.UserID = userID
		created, err := h.txSvc.Append(ctx, txn)
		if err != nil {
			return result, fmt.Errorf("failed to append transaction: %w", err)
		}
		result.Transaction = txn
		result.TransactionCreated = created
	}

	if parser.TriggersSync(ctx) && h.syncer != nil {
		_, err := h.syncer.Sync(ctx, reconcile.SyncRequest{
			SubscriptionID: subscriptionID,
			UserID:         userID,
			Operation:      types.SyncOperationWebhook,
		})
		if err != nil {
			return result, fmt.Errorf("webhook sync failed: %w", err)
		}
		result.Synced = true
	}

	log.Infow("webhook_handled",
		"event_id", eventID,
		"event_type", result.EventType,
		"subscription_id", subscriptionID,
		"synced", result.Synced,
		"transaction_created", result.TransactionCreated,
	)
	return result, nil
}

func (h *NotificationHandler) saveLog(ctx context.Context, entry *models.PaymentNotificationLog) {
	if h.notifSvc != nil {
		h.notifSvc.Save(ctx, entry)
	}
}
