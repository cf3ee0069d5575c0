package notification_handler

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	notificationlog "github.com/fatflowers/subsync/internal/app/service/notification_log"
	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/app/service/subscription"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	"github.com/fatflowers/subsync/pkg/config"
)

func newFromDeps(cfg *config.Config, notif *notificationlog.Service, sub *subscription.Service, tx transaction.TransactionManager, syncer *reconcile.Syncer, log *zap.SugaredLogger) *NotificationHandler {
	return NewNotificationHandler(Options{
		Notifications: notif,
		Subscriptions: sub,
		Transactions:  tx,
		Syncer:        syncer,
		DedupeTTL:     cfg.Webhook.DedupeTTL,
		Logger:        log,
	})
}

var Module = fx.Options(
	fx.Provide(newFromDeps),
)
