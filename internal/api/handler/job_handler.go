package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbytes/backend/internal/api/dto"
	"github.com/bookbytes/backend/internal/job"
	"github.com/bookbytes/backend/internal/jobstore"
)

// GetJob handles GET /api/v1/jobs/:job_id
// Returns job status for polling: progress, current step, error details.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromRecord(rec))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs newest first with optional status/job_type filters and
// cursor pagination.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := jobstore.Filter{
		Status:   req.Status,
		JobType:  req.JobType,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	resp := dto.ListJobsResponse{
		Jobs: make([]dto.JobDTO, len(jobs)),
	}
	for i := range jobs {
		resp.Jobs[i] = dto.FromRecord(&jobs[i])
	}

	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeJobCursor(&jobstore.Cursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// RetryJob handles POST /api/v1/jobs/:job_id/retry
// Schedules a failed job for another attempt. Returns 409 when the job is
// not FAILED or its retry budget is exhausted.
func (h *JobHandler) RetryJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	ok, err := h.processing.Retry(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to schedule retry", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to schedule retry",
		})
		return
	}

	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"error": "job cannot be retried",
		})
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to get job after retry", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromRecord(rec))
}

// JobStats handles GET /api/v1/jobs/stats
// Reports queue depth for monitoring.
func (h *JobHandler) JobStats(c *gin.Context) {
	pending, err := h.store.CountPending(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count pending jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count pending jobs",
		})
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{Pending: pending})
}
