package logger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowQuery   = 200 * time.Millisecond
	defaultMaxSQLBytes = 2048
)

// GormLogger routes mirror store SQL logs to zap. Every entry carries the
// request or job that issued the query plus the active trace ids, so sweep
// deletes and sync upserts can be told apart from API reads.
type GormLogger struct {
	base        *zap.Logger
	level       gormlogger.LogLevel
	slowQuery   time.Duration
	maxSQLBytes int
	logNotFound bool
}

// GormLoggerOption is a function that configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a query is logged as slow. Zero disables it.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowQuery = threshold
	}
}

// WithIgnoreRecordNotFoundError controls whether lookups that miss are logged as errors.
// Misses are expected on the resolver path, so they are ignored by default.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = !ignore
	}
}

// WithMaxSQLLength caps the logged statement size. Sweep deletes bind one
// parameter per stale order and can grow large. Zero or less keeps statements whole.
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) {
		l.maxSQLBytes = n
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	gl := &GormLogger{
		base:        zapLogger.Named("gorm"),
		level:       level,
		slowQuery:   defaultSlowQuery,
		maxSQLBytes: defaultMaxSQLBytes,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		enrich(ctx, l.base).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		enrich(ctx, l.base).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		enrich(ctx, l.base).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Failed statements log at error, slow
// ones at warn and everything else at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := enrich(ctx, l.base)
	fields := func(extra ...zap.Field) []zap.Field {
		sql, rows := fc()
		return append([]zap.Field{
			zap.String("sql", l.truncate(sql)),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		}, extra...)
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		log.Error("Mirror store query failed", fields(zap.Error(err))...)
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		log.Warn("Slow mirror store query", fields(zap.Duration("threshold", l.slowQuery))...)
	case l.level >= gormlogger.Info:
		log.Debug("Mirror store query", fields()...)
	}
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLBytes <= 0 || len(sql) <= l.maxSQLBytes {
		return sql
	}
	return sql[:l.maxSQLBytes] + "... (" + strconv.Itoa(len(sql)) + " bytes)"
}

// MapGormLogLevel maps a config log level to a GORM log level, defaulting to warn
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
