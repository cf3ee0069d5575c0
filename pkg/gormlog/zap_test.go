package gormlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fatflowers/subsync/pkg/logctx"
)

func TestShortCaller(t *testing.T) {
	cases := map[string]string{
		"":                                             "",
		"/home/ci/repo/internal/platform/db/db.go:38": "internal/platform/db/db.go:38",
		"/src/x/pkg/tool/dates.go:12":                 "pkg/tool/dates.go:12",
		"/a/b/c/d/e.go:7":                             "c/d/e.go:7",
		"/e.go:1":                                     "e.go:1",
	}
	for in, want := range cases {
		require.Equal(t, want, shortCaller(in), in)
	}
}

func TestTrace_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core).Sugar(), gormlogger.Warn)
	stmt := func() (string, int64) { return "SELECT 1", 1 }
	ctx := logctx.WithTraceID(context.Background(), "t-1")

	l.Trace(ctx, time.Now(), stmt, nil)
	require.Zero(t, logs.Len())

	l.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	require.Zero(t, logs.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("gorm_error").Len())
	require.Equal(t, "t-1", logs.All()[0].ContextMap()["trace_id"])

	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.Equal(t, 1, logs.FilterMessage("gorm_slow").Len())

	l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), stmt, nil)
	require.Equal(t, 1, logs.FilterMessage("gorm").Len())

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("boom"))
	require.Equal(t, 3, logs.Len())
}
