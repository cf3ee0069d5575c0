package reconcile

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/config"
	"github.com/fatflowers/subsync/pkg/metrics"
	"github.com/fatflowers/subsync/pkg/tool"
)

// NewMapper builds the provider mapper from billing config.
func NewMapper(cfg *config.Config) Mapper {
	return Mapper{ProPlanMarker: cfg.Billing.ProPlanMarker, Location: cfg.Location()}
}

type SyncerParams struct {
	fx.In

	Provider Provider
	Store    Store
	Audit    AuditRecorder        `optional:"true"`
	Metrics  *metrics.SyncMetrics `optional:"true"`
	Mapper   Mapper
	Log      *zap.SugaredLogger
}

func NewSyncerFromParams(p SyncerParams) (*Syncer, error) {
	return NewSyncer(SyncerOptions{
		Provider: p.Provider,
		Store:    p.Store,
		Audit:    p.Audit,
		Mapper:   p.Mapper,
		Log:      p.Log,
		Now:      tool.SystemClock,
		Metrics:  p.Metrics,
	})
}

func NewPollerFromConfig(lc fx.Lifecycle, syncer *Syncer, cfg *config.Config, log *zap.SugaredLogger) *Poller {
	poller := NewPoller(syncer, cfg.Billing.PollInterval, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			poller.StopAll()
			return nil
		},
	})
	return poller
}

var Module = fx.Options(
	fx.Provide(
		func(c *paypal.Client) Provider { return c },
		NewMapper,
		NewSyncerFromParams,
		NewPollerFromConfig,
	),
)
