package subscription

import (
	"go.uber.org/fx"

	"github.com/fatflowers/subsync/internal/app/service/reconcile"
)

// Module exposes the subscription service via Fx. The service is also the
// sync store.
var Module = fx.Options(
	fx.Provide(
		NewService,
		func(s *Service) reconcile.Store { return s },
	),
)
