package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	jobKey       contextKey = "job"
)

// JobInfo names the background job a context belongs to
type JobInfo struct {
	Name    string
	Trigger string
}

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithJob marks ctx as running inside a sync or cleanup job
func WithJob(ctx context.Context, name, trigger string) context.Context {
	return context.WithValue(ctx, jobKey, JobInfo{Name: name, Trigger: trigger})
}

// GetJob retrieves the job from context
func GetJob(ctx context.Context) (JobInfo, bool) {
	job, ok := ctx.Value(jobKey).(JobInfo)
	return job, ok
}

// contextFields returns the request and job fields carried by ctx
func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if job, ok := GetJob(ctx); ok {
		fields = append(fields, zap.String("job", job.Name), zap.String("trigger", job.Trigger))
	}
	return fields
}

// WithTraceContext adds trace_id and span_id from the span in ctx.
// The logger is returned unchanged when there is no valid span.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// L returns the context logger enriched with request, job and trace fields.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *zap.Logger {
	return enrich(ctx, FromContext(ctx))
}

func enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	l = WithTraceContext(ctx, l)
	if fields := contextFields(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}
