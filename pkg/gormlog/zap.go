// Package gormlog routes gorm statement logs into zap, tagged with the
// caller's trace id.
package gormlog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"github.com/fatflowers/subsync/pkg/logctx"
)

// DefaultSlowThreshold is the statement duration logged as gorm_slow.
const DefaultSlowThreshold = 500 * time.Millisecond

// Logger implements gormlogger.Interface. Record-not-found errors are not logged.
type Logger struct {
	base  *zap.SugaredLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

func New(base *zap.SugaredLogger, level gormlogger.LogLevel) *Logger {
	return &Logger{base: base, level: level, slow: DefaultSlowThreshold}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *Logger) enabled(level gormlogger.LogLevel) bool {
	return l.level != gormlogger.Silent && l.level >= level
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Info) {
		logctx.FromCtx(ctx, l.base).Infow(msg, "args", args)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Warn) {
		logctx.FromCtx(ctx, l.base).Warnw(msg, "args", args)
	}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l.enabled(gormlogger.Error) {
		logctx.FromCtx(ctx, l.base).Errorw(msg, "args", args)
	}
}

// Trace logs failed statements at error, slow ones at warn and the rest at info.
func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow
	if !failed && !slow && !l.enabled(gormlogger.Info) {
		return
	}

	sql, rows := fc()
	log := logctx.FromCtx(ctx, l.base).With(
		"sql", sql,
		"rows", rows,
		"elapsed_ms", elapsed.Milliseconds(),
		"caller", shortCaller(utils.FileWithLineNum()),
	)
	switch {
	case failed:
		log.Errorw("gorm_error", "error", err)
	case slow:
		log.Warnw("gorm_slow", "threshold_ms", l.slow.Milliseconds())
	default:
		log.Infow("gorm")
	}
}

// shortCaller cuts a build path down to its module-relative part,
// e.g. /home/ci/repo/internal/platform/db/db.go:38 -> internal/platform/db/db.go:38.
func shortCaller(s string) string {
	if s == "" {
		return s
	}
	file, line := s, ""
	if i := strings.LastIndex(s, ":"); i >= 0 {
		file, line = s[:i], s[i:]
	}
	file = filepath.ToSlash(file)
	for _, root := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.Index(file, root); i >= 0 {
			return file[i+1:] + line
		}
	}
	segs := strings.Split(strings.TrimPrefix(file, "/"), "/")
	if len(segs) > 3 {
		segs = segs[len(segs)-3:]
	}
	return strings.Join(segs, "/") + line
}
