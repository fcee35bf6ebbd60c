package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for a daily trigger
type CronTriggerConfig struct {
	// Name identifies the trigger in logs
	Name string

	// Schedule is the time of day to fire
	Schedule DailySchedule

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// CronTrigger calls a job once a day at a fixed time
type CronTrigger struct {
	config CronTriggerConfig
	job    func(ctx context.Context)
	logger *zap.Logger
	nowFn  func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, job func(ctx context.Context), logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config: config,
		job:    job,
		logger: logger.With(zap.String("trigger", config.Name)),
		nowFn:  time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.String("schedule", c.config.Schedule.String()),
		zap.Time("next_run", c.config.Schedule.Next(c.nowFn())),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger and waits for a running job to return
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the job if the scheduled minute has come and it has not run today
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.nowFn()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == currentDate || !c.config.Schedule.Due(now) {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering scheduled job")
	c.job(ctx)
	return true
}
