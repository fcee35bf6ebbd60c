package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned for cron expressions that are not a fixed daily time
	ErrInvalidSchedule = errors.New("scheduler: invalid daily schedule")

	// ErrJobAlreadyRunning is returned when the job lock is held by another run
	ErrJobAlreadyRunning = errors.New("scheduler: job already running")

	// ErrUnknownJob is returned for job names the runner does not know
	ErrUnknownJob = errors.New("scheduler: unknown job")
)
