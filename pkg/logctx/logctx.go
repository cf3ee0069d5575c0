// Package logctx carries a request-scoped zap logger and trace id through
// gin and context.Context so services log with the caller's fields.
package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys shared with the api middleware.
const (
	GinLoggerKey  = "logger"
	GinTraceIDKey = "traceID"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	traceIDKey
)

// WithLogger returns ctx carrying l.
func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithTraceID stores id for work that has no inbound request, such as poll ticks.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// TraceID returns the trace id stored on ctx, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// FromGin prefers the logger set by the request middleware and falls back to FromCtx.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if v, ok := c.Get(GinLoggerKey); ok {
		if l, ok := v.(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}
	if c.Request == nil {
		return base
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns the logger stored on ctx. Without one, base is returned,
// tagged with trace_id when ctx carries a trace id.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok && l != nil {
		return l
	}
	if id := TraceID(ctx); id != "" && base != nil {
		return base.With("trace_id", id)
	}
	return base
}
