package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/subsync/internal/app/api/server"
	notificationhandler "github.com/fatflowers/subsync/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/subsync/internal/app/service/notification_log"
	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/app/service/statistics"
	"github.com/fatflowers/subsync/internal/app/service/subscription"
	synclog "github.com/fatflowers/subsync/internal/app/service/sync_log"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	"github.com/fatflowers/subsync/internal/platform/db"
	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/config"
	"github.com/fatflowers/subsync/pkg/logger"
	"github.com/fatflowers/subsync/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Core wires everything a sync needs, without the HTTP server.
var Core = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	metrics.Module,
	paypal.Module,
	reconcile.Module,
	subscription.Module,
	synclog.Module,
	transaction.Module,
)

var Module = fx.Options(
	Core,
	server.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
)
