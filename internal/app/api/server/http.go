package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/subsync/docs"
	"github.com/fatflowers/subsync/internal/app/api/handlers"
	mw "github.com/fatflowers/subsync/internal/app/api/middleware"
	nh "github.com/fatflowers/subsync/internal/app/service/notification_handler"
	"github.com/fatflowers/subsync/internal/app/service/reconcile"
	"github.com/fatflowers/subsync/internal/app/service/statistics"
	subsvc "github.com/fatflowers/subsync/internal/app/service/subscription"
	synclog "github.com/fatflowers/subsync/internal/app/service/sync_log"
	"github.com/fatflowers/subsync/internal/app/service/transaction"
	cfgpkg "github.com/fatflowers/subsync/pkg/config"
	metrics "github.com/fatflowers/subsync/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg != nil && cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// request logger and access log are attached per group in registerRoutes
	r.Use(gin.Recovery(), mw.TraceMiddleware())
	return r
}

type routeParams struct {
	fx.In

	Engine   *gin.Engine
	Log      *zap.SugaredLogger
	Config   *cfgpkg.Config
	DB       *sql.DB
	Syncer   *reconcile.Syncer
	Poller   *reconcile.Poller
	Subs     *subsvc.Service
	Tx       transaction.TransactionManager
	Stats    *statistics.Service
	SyncLog  *synclog.Service
	Webhooks *nh.NotificationHandler
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Config
	if cfg != nil && cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem: "subsync",
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		prom.SetListenAddress(cfg.MetricsAddr)
		prom.Use(r)

		log.Infow("metrics listener configured", "addr", cfg.MetricsAddr)
	}

	logged := []gin.HandlerFunc{mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware()}

	pub := r.Group("/", logged...)
	handlers.RegisterHealthRoutes(pub, p.DB)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1", logged...)

	handlers.RegisterSubscriptionRoutes(apiV1.Group("/subscription"), p.Syncer, p.Subs, p.Tx, p.Poller)
	handlers.RegisterPaymentWebhookRoutes(apiV1.Group("/webhook"), p.Webhooks, log)
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), p.Tx, p.Stats, p.SyncLog)
}

// runServer binds the listener during OnStart so a taken port fails startup.
// Serve errors after that shut the app down through fx.
func runServer(lc fx.Lifecycle, sd fx.Shutdowner, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			log.Infow("http server listening", "addr", ln.Addr().String())
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("http server stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
