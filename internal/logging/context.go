package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// ContextWithTraceID stores the request trace id on ctx.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the trace id set by ContextWithTraceID, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// FromContext attaches the trace id carried by ctx, when there is one.
func FromContext(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return logger.WithField("trace_id", traceID)
	}
	return logger
}
