package main

// @title           Subscription Sync API
// @version         1.0
// @description     Reconciles PayPal subscriptions into local subscription records and user settings.

// @contact.name   Subsync maintainers

// @host      localhost:8888
// @BasePath  /

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/subsync/internal/app"
)

func main() {
	os.Exit(run())
}

// run starts the api app and blocks until fx observes SIGINT or SIGTERM.
func run() int {
	fallback := zap.NewExample().Sugar()

	a := fx.New(app.Module)
	startCtx, cancelStart := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancelStart()
	if err := a.Start(startCtx); err != nil {
		fallback.Errorw("subsync api failed to start", "error", err)
		return 1
	}

	sig := <-a.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancelStop()
	if err := a.Stop(stopCtx); err != nil {
		fallback.Errorw("subsync api failed to stop", "signal", sig.String(), "error", err)
		return 1
	}
	return 0
}
