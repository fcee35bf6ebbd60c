package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DefaultPoolStatsInterval is how often pool stats are sampled when no interval is given.
const DefaultPoolStatsInterval = 15 * time.Second

// DBPoolMetrics samples database/sql pool statistics into gauges.
type DBPoolMetrics struct {
	connections    *Gauge // db_pool_connections{db.state}
	connectionsMax *Gauge // db_pool_connections_max
	waitTotal      *Gauge // db_pool_wait_count

	sqlDB    *sql.DB
	interval time.Duration
	logger   *zap.Logger

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBPoolMetrics creates the pool gauges on meter for sqlDB.
func NewDBPoolMetrics(meter metric.Meter, sqlDB *sql.DB, interval time.Duration, logger *zap.Logger) (*DBPoolMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPoolStatsInterval
	}

	m := &DBPoolMetrics{
		sqlDB:    sqlDB,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	var err error
	if m.connections, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.connectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of open connections", "{connection}"); err != nil {
		return nil, err
	}
	if m.waitTotal, err = NewGauge(meter, "db_pool_wait_count",
		"Total number of connections waited for", "{wait}"); err != nil {
		return nil, err
	}
	return m, nil
}

// Start samples immediately and then on every interval until Stop or ctx is done.
func (m *DBPoolMetrics) Start(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Cannot start pool stats collection: sql.DB not set")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collect(ctx)
		for {
			select {
			case <-ticker.C:
				m.collect(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("Started database pool stats collection", zap.Duration("interval", m.interval))
}

// Stop terminates the sampling goroutine. Safe to call more than once.
func (m *DBPoolMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

func (m *DBPoolMetrics) collect(ctx context.Context) {
	if m.sqlDB == nil {
		return
	}
	stats := m.sqlDB.Stats()

	m.connectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.connections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.connections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.connections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	m.waitTotal.Record(ctx, stats.WaitCount)
}
