package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/storemirror/backend/internal/infrastructure/cache"
	"github.com/storemirror/backend/internal/infrastructure/logger"
	"github.com/storemirror/backend/internal/infrastructure/telemetry"
)

// JobName identifies a mirror job
type JobName string

const (
	JobSync    JobName = "sync"
	JobCleanup JobName = "cleanup"
)

// Trigger describes what started a job run
type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

// SyncRunner runs one reconciliation pass
type SyncRunner interface {
	RunSync(ctx context.Context) (*mirror.SyncOutcome, error)
}

// CleanupRunner runs one retention sweep
type CleanupRunner interface {
	RunCleanup(ctx context.Context) (*mirror.CleanupOutcome, error)
}

// OutcomeRecorder receives finished job outcomes, typically for metrics
type OutcomeRecorder interface {
	RecordSync(ctx context.Context, outcome *mirror.SyncOutcome)
	RecordCleanup(ctx context.Context, outcome *mirror.CleanupOutcome)
	RecordSkipped(ctx context.Context, job string)
}

type noopRecorder struct{}

func (noopRecorder) RecordSync(context.Context, *mirror.SyncOutcome)       {}
func (noopRecorder) RecordCleanup(context.Context, *mirror.CleanupOutcome) {}
func (noopRecorder) RecordSkipped(context.Context, string)                 {}

// JobRecord is one entry of the run history
type JobRecord struct {
	Job        JobName                `json:"job"`
	Trigger    Trigger                `json:"trigger"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
	Status     mirror.RunStatus       `json:"status"`
	Error      string                 `json:"error,omitempty"`
	Sync       *mirror.SyncOutcome    `json:"sync,omitempty"`
	Cleanup    *mirror.CleanupOutcome `json:"cleanup,omitempty"`
}

// JobRunnerConfig holds configuration for the job runner
type JobRunnerConfig struct {
	// LockTTL bounds how long a crashed run can block the next one
	LockTTL time.Duration
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	// HistorySize is the number of records kept in memory
	HistorySize int
}

// DefaultJobRunnerConfig returns the default runner configuration
func DefaultJobRunnerConfig() JobRunnerConfig {
	return JobRunnerConfig{
		LockTTL:     30 * time.Minute,
		JobTimeout:  20 * time.Minute,
		HistorySize: 20,
	}
}

// JobRunnerOption configures a JobRunner
type JobRunnerOption func(*JobRunner)

// WithOutcomeRecorder sets the recorder for finished runs
func WithOutcomeRecorder(recorder OutcomeRecorder) JobRunnerOption {
	return func(r *JobRunner) {
		if recorder != nil {
			r.recorder = recorder
		}
	}
}

// WithRunnerClock overrides the clock used for history timestamps
func WithRunnerClock(nowFn func() time.Time) JobRunnerOption {
	return func(r *JobRunner) {
		r.nowFn = nowFn
	}
}

// JobRunner runs sync and cleanup jobs under a job lock so that
// at most one run of each job is active across all instances.
type JobRunner struct {
	config   JobRunnerConfig
	sync     SyncRunner
	cleanup  CleanupRunner
	lock     cache.JobLock
	recorder OutcomeRecorder
	logger   *zap.Logger
	nowFn    func() time.Time

	mu      sync.Mutex
	history []JobRecord
	wg      sync.WaitGroup
}

// NewJobRunner creates a new job runner
func NewJobRunner(
	config JobRunnerConfig,
	syncRunner SyncRunner,
	cleanupRunner CleanupRunner,
	lock cache.JobLock,
	logger *zap.Logger,
	opts ...JobRunnerOption,
) *JobRunner {
	defaults := DefaultJobRunnerConfig()
	if config.LockTTL <= 0 {
		config.LockTTL = defaults.LockTTL
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.HistorySize <= 0 {
		config.HistorySize = defaults.HistorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &JobRunner{
		config:   config,
		sync:     syncRunner,
		cleanup:  cleanupRunner,
		lock:     lock,
		recorder: noopRecorder{},
		logger:   logger,
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the job synchronously. It returns ErrJobAlreadyRunning
// without running anything when another run holds the lock.
func (r *JobRunner) Run(ctx context.Context, job JobName, trigger Trigger) (*JobRecord, error) {
	release, err := r.acquire(ctx, job)
	if err != nil {
		return nil, err
	}
	defer release()

	return r.execute(ctx, job, trigger)
}

// Dispatch acquires the job lock and runs the job in the background.
// The run is detached from ctx cancellation; use Wait to drain it.
func (r *JobRunner) Dispatch(ctx context.Context, job JobName, trigger Trigger) error {
	release, err := r.acquire(ctx, job)
	if err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer release()
		_, _ = r.execute(runCtx, job, trigger)
	}()
	return nil
}

// Wait blocks until dispatched runs finish or ctx is done
func (r *JobRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScheduledJob returns a function suitable for a CronTrigger
func (r *JobRunner) ScheduledJob(job JobName) func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, err := r.Run(ctx, job, TriggerSchedule); err != nil {
			r.logger.Warn("Scheduled job did not complete",
				zap.String("job", string(job)),
				zap.Error(err),
			)
		}
	}
}

// History returns recorded runs, newest first
func (r *JobRunner) History() []JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobRecord, len(r.history))
	for i, rec := range r.history {
		out[len(r.history)-1-i] = rec
	}
	return out
}

func (r *JobRunner) acquire(ctx context.Context, job JobName) (func(), error) {
	if job != JobSync && job != JobCleanup {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}

	release, acquired, err := r.lock.Acquire(ctx, string(job), r.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire %s lock: %w", job, err)
	}
	if !acquired {
		r.logger.Info("Job already running, skipping", zap.String("job", string(job)))
		r.recorder.RecordSkipped(ctx, string(job))
		return nil, ErrJobAlreadyRunning
	}
	return release, nil
}

func (r *JobRunner) execute(ctx context.Context, job JobName, trigger Trigger) (*JobRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()
	ctx = logger.WithJob(ctx, string(job), string(trigger))

	ctx, span := telemetry.StartSpan(ctx, "job."+string(job),
		telemetry.AttrJob.String(string(job)),
		telemetry.AttrTrigger.String(string(trigger)),
	)
	defer span.End()

	record := JobRecord{
		Job:       job,
		Trigger:   trigger,
		StartedAt: r.nowFn().UTC(),
	}
	log := r.logger.With(zap.String("job", string(job)), zap.String("trigger", string(trigger)))
	log.Info("Job started")

	var err error
	telemetry.ProfileJob(ctx, string(job), string(trigger), func(ctx context.Context) {
		switch job {
		case JobSync:
			var outcome *mirror.SyncOutcome
			outcome, err = r.sync.RunSync(ctx)
			if outcome != nil {
				record.Sync = outcome
				record.Status = outcome.Status
				r.recorder.RecordSync(ctx, outcome)
			}
		case JobCleanup:
			var outcome *mirror.CleanupOutcome
			outcome, err = r.cleanup.RunCleanup(ctx)
			if outcome != nil {
				record.Cleanup = outcome
				record.Status = outcome.Status
				r.recorder.RecordCleanup(ctx, outcome)
			}
		}
	})

	record.FinishedAt = r.nowFn().UTC()
	if err != nil {
		telemetry.RecordError(span, err)
		record.Error = err.Error()
	}
	// a run that produced no usable outcome is reported as failed
	if !record.Status.IsValid() {
		record.Status = mirror.RunStatusFailed
	}
	span.SetAttributes(telemetry.AttrStatus.String(record.Status.String()))
	r.remember(record)

	fields := []zap.Field{
		zap.String("status", record.Status.String()),
		zap.Duration("duration", record.FinishedAt.Sub(record.StartedAt)),
	}
	if err != nil {
		log.Error("Job finished with error", append(fields, zap.Error(err))...)
	} else {
		log.Info("Job finished", fields...)
	}

	return &record, err
}

func (r *JobRunner) remember(record JobRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, record)
	if over := len(r.history) - r.config.HistorySize; over > 0 {
		r.history = append([]JobRecord(nil), r.history[over:]...)
	}
}
