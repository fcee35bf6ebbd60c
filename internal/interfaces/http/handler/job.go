package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/storemirror/backend/internal/infrastructure/scheduler"
)

// JobDispatcher starts background jobs and reports their recent outcomes
type JobDispatcher interface {
	Dispatch(ctx context.Context, job scheduler.JobName, trigger scheduler.Trigger) error
	History() []scheduler.JobRecord
}

// JobAccepted is returned when a manual run has been started
type JobAccepted struct {
	Job     scheduler.JobName `json:"job"`
	Trigger scheduler.Trigger `json:"trigger"`
}

// JobHandler exposes the sync and cleanup jobs
type JobHandler struct {
	BaseHandler
	jobs JobDispatcher
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs JobDispatcher) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// History returns the most recent job outcomes, newest first
// GET /api/v1/jobs
func (h *JobHandler) History(c *gin.Context) {
	records := h.jobs.History()
	if records == nil {
		records = []scheduler.JobRecord{}
	}
	h.Success(c, records)
}

// TriggerSync starts a sync run in the background
// POST /api/v1/jobs/sync
func (h *JobHandler) TriggerSync(c *gin.Context) {
	h.trigger(c, scheduler.JobSync)
}

// TriggerCleanup starts a cleanup run in the background
// POST /api/v1/jobs/cleanup
func (h *JobHandler) TriggerCleanup(c *gin.Context) {
	h.trigger(c, scheduler.JobCleanup)
}

func (h *JobHandler) trigger(c *gin.Context, job scheduler.JobName) {
	if err := h.jobs.Dispatch(c.Request.Context(), job, scheduler.TriggerManual); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, JobAccepted{Job: job, Trigger: scheduler.TriggerManual})
}
