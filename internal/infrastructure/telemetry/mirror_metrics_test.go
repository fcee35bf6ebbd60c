package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/storemirror/backend/internal/domain/mirror"
)

func newTestMirrorMetrics(t *testing.T) (*MirrorMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMirrorMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	return m, reader
}

// sumByAttr returns the int64 sum data points of a counter keyed by the value of attr
func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name string, attr string) map[string]int64 {
	t.Helper()
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key(attr))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func hasMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestNewMirrorMetrics_NilMeter(t *testing.T) {
	m, err := NewMirrorMetrics(nil, nil)
	require.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestMirrorMetrics_RecordSync(t *testing.T) {
	m, reader := newTestMirrorMetrics(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	m.RecordSync(ctx, &mirror.SyncOutcome{
		Status:          mirror.RunStatusPartial,
		StartedAt:       start,
		FinishedAt:      start.Add(3 * time.Second),
		Fetched:         4,
		Created:         2,
		Updated:         1,
		Skipped:         1,
		ProductsCreated: 2,
	})
	m.RecordSync(ctx, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, map[string]int64{"PARTIAL": 1}, sumByAttr(t, rm, "mirror_job_runs_total", "status"))
	assert.Equal(t, map[string]int64{"created": 2, "updated": 1, "skipped": 1},
		sumByAttr(t, rm, "mirror_sync_orders_total", "result"))
	assert.Equal(t, map[string]int64{"": 2}, sumByAttr(t, rm, "mirror_sync_products_created_total", "result"))
	assert.True(t, hasMetric(rm, "mirror_job_duration_seconds"))
}

func TestMirrorMetrics_RecordCleanupAndSkipped(t *testing.T) {
	m, reader := newTestMirrorMetrics(t)
	ctx := context.Background()

	m.RecordCleanup(ctx, &mirror.CleanupOutcome{
		Status:          mirror.RunStatusSuccess,
		OrdersDeleted:   5,
		ProductsDeleted: 2,
	})
	m.RecordSkipped(ctx, "cleanup")
	m.RecordSkipped(ctx, "sync")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, map[string]int64{"order": 5, "product": 2}, sumByAttr(t, rm, "mirror_cleanup_deleted_total", "entity"))
	assert.Equal(t, map[string]int64{"cleanup": 1, "sync": 1}, sumByAttr(t, rm, "mirror_job_skipped_total", "job"))
	assert.Equal(t, map[string]int64{"cleanup": 1}, sumByAttr(t, rm, "mirror_job_runs_total", "job"))
}
