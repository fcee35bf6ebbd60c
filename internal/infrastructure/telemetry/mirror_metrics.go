package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/storemirror/backend/internal/domain/mirror"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// MirrorMetrics records sync and cleanup outcomes.
type MirrorMetrics struct {
	logger *zap.Logger

	runsTotal    *Counter
	runDuration  *Histogram
	ordersTotal  *Counter
	productsNew  *Counter
	deletedTotal *Counter
	skippedRuns  *Counter
}

// NewMirrorMetrics creates the mirror metric instruments on meter.
func NewMirrorMetrics(meter metric.Meter, logger *zap.Logger) (*MirrorMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &MirrorMetrics{logger: logger}
	var err error

	if m.runsTotal, err = NewCounter(meter, "mirror_job_runs_total",
		"Number of finished job runs by job and status", "{runs}"); err != nil {
		return nil, err
	}
	if m.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "mirror_job_duration_seconds",
		Description: "Job run duration",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.ordersTotal, err = NewCounter(meter, "mirror_sync_orders_total",
		"Orders processed by sync runs by result", "{orders}"); err != nil {
		return nil, err
	}
	if m.productsNew, err = NewCounter(meter, "mirror_sync_products_created_total",
		"Products created while resolving line items", "{products}"); err != nil {
		return nil, err
	}
	if m.deletedTotal, err = NewCounter(meter, "mirror_cleanup_deleted_total",
		"Rows removed by retention sweeps by entity", "{rows}"); err != nil {
		return nil, err
	}
	if m.skippedRuns, err = NewCounter(meter, "mirror_job_skipped_total",
		"Runs skipped because another run held the job lock", "{runs}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSync records a finished sync run.
func (m *MirrorMetrics) RecordSync(ctx context.Context, o *mirror.SyncOutcome) {
	if o == nil {
		return
	}
	job := AttrJob.String("sync")
	m.runsTotal.Inc(ctx, job, AttrStatus.String(o.Status.String()))
	m.runDuration.RecordDuration(ctx, o.Duration(), job)

	for result, n := range map[string]int{
		"created": o.Created,
		"updated": o.Updated,
		"skipped": o.Skipped,
		"failed":  o.Failed,
	} {
		if n > 0 {
			m.ordersTotal.Add(ctx, int64(n), AttrResult.String(result))
		}
	}
	if o.ProductsCreated > 0 {
		m.productsNew.Add(ctx, int64(o.ProductsCreated))
	}
}

// RecordCleanup records a finished retention sweep.
func (m *MirrorMetrics) RecordCleanup(ctx context.Context, o *mirror.CleanupOutcome) {
	if o == nil {
		return
	}
	job := AttrJob.String("cleanup")
	m.runsTotal.Inc(ctx, job, AttrStatus.String(o.Status.String()))
	m.runDuration.RecordDuration(ctx, o.Duration(), job)

	if o.OrdersDeleted > 0 {
		m.deletedTotal.Add(ctx, o.OrdersDeleted, AttrEntity.String("order"))
	}
	if o.ProductsDeleted > 0 {
		m.deletedTotal.Add(ctx, o.ProductsDeleted, AttrEntity.String("product"))
	}
}

// RecordSkipped records a run that did not start because the job was locked.
func (m *MirrorMetrics) RecordSkipped(ctx context.Context, job string) {
	m.skippedRuns.Inc(ctx, AttrJob.String(job))
}
