package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/subsync/internal/models"
	cfgpkg "github.com/fatflowers/subsync/pkg/config"
	"github.com/fatflowers/subsync/pkg/gormlog"
)

// Dialector picks the gorm driver for the configured database. An empty
// driver means postgres.
func Dialector(cfg cfgpkg.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case cfgpkg.DBDriverPostgres, "":
		return postgres.Open(cfg.DSN), nil
	case cfgpkg.DBDriverMySQL:
		return mysql.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("%w: unsupported database driver %q", cfgpkg.ErrConfiguration, cfg.Driver)
}

func gormLevel(env cfgpkg.Env) gormlogger.LogLevel {
	if env == cfgpkg.EnvDev {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("%w: database.dsn is empty", cfgpkg.ErrConfiguration)
	}
	dialector, err := Dialector(cfg.Database)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormlog.New(l, gormLevel(cfg.Env))})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}
	l.Infow("database connected", "driver", dialector.Name())
	return gdb, nil
}

// NewSQLDB applies the pool limits and exposes the pool for readiness
// checks. The pool is closed on app stop.
func NewSQLDB(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config, gdb *gorm.DB) (*sql.DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	applyPool(sqlDB, cfg.Database)
	lc.Append(fx.StopHook(func() error {
		l.Infow("closing database pool")
		return sqlDB.Close()
	}))
	return sqlDB, nil
}

func applyPool(sqlDB *sql.DB, cfg cfgpkg.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// migrated lists every table the service owns.
var migrated = []any{
	&models.Subscription{},
	&models.UserSettings{},
	&models.PaymentTransaction{},
	&models.SyncOperation{},
	&models.PaymentNotificationLog{},
}

// AutoMigrate creates or alters the service tables on startup.
func AutoMigrate(ctx context.Context, l *zap.SugaredLogger, gdb *gorm.DB) error {
	if err := gdb.WithContext(ctx).AutoMigrate(migrated...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	l.Infow("automigrate completed", "tables", len(migrated))
	return nil
}

var Module = fx.Options(
	fx.Provide(NewDB, NewSQLDB),
	fx.Invoke(func(l *zap.SugaredLogger, gdb *gorm.DB, _ *sql.DB) error {
		return AutoMigrate(context.Background(), l, gdb)
	}),
)
