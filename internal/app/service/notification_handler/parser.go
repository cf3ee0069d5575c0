package notification_handler

import (
	"context"
	"time"

	"github.com/fatflowers/subsync/internal/models"
)

type NotificationParser interface {
	GetEventID(ctx context.Context) string
	GetEventType(ctx context.Context) string
	GetNotificationTime(ctx context.Context) time.Time
	// GetSubscriptionID returns the provider subscription the event concerns,
	// or "" when it concerns none.
	GetSubscriptionID(ctx context.Context) string
	// GetUserID returns the user id carried by the event, if any.
	GetUserID(ctx context.Context) (string, error)
	// TriggersSync reports whether the event should refresh the subscription.
	TriggersSync(ctx context.Context) bool
	// GetTransaction returns the payment transaction the event records, or
	// nil when it records none. UserID is left for the caller to fill.
	GetTransaction(ctx context.Context) (*models.PaymentTransaction, error)
	GetData(ctx context.Context) any
}
