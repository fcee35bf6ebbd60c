package cache

import (
	"fmt"

	"github.com/storemirror/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// JobLockFactory creates job locks based on configuration
type JobLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// JobLockFactoryOption is a functional option for configuring the factory
type JobLockFactoryOption func(*JobLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) JobLockFactoryOption {
	return func(f *JobLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) JobLockFactoryOption {
	return func(f *JobLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewJobLockFactory creates a new factory
func NewJobLockFactory(cfg config.RedisConfig, opts ...JobLockFactoryOption) *JobLockFactory {
	f := &JobLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-based job lock
func (f *JobLockFactory) CreateRedisLock() (*RedisJobLock, error) {
	lock, err := NewRedisJobLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis job lock: %w", err)
	}
	return lock, nil
}

// CreateLock creates a job lock. Redis is used when enabled and reachable;
// otherwise an in-memory lock is returned if fallback is allowed.
// WARNING: in-memory locks do not exclude runs in other process instances.
func (f *JobLockFactory) CreateLock() (JobLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory job lock")
		return NewInMemoryJobLock(), nil
	}

	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis job lock")
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for job locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory job lock. "+
		"Scheduled jobs may overlap across instances.",
		zap.Error(err),
	)
	return NewInMemoryJobLock(), nil
}
