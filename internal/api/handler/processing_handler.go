package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bookbytes/backend/internal/api/dto"
)

// Process handles POST /api/v1/audiobooks/process
// Queues an audiobook generation job. Returns 202 with a job id for
// status polling; when the audiobook already has an active job, that job
// is returned instead of queueing a duplicate.
func (h *ProcessingHandler) Process(c *gin.Context) {
	var req dto.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if req.AudioBookID != "" {
		if _, err := uuid.Parse(req.AudioBookID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "audio_book_id must be a valid UUID",
			})
			return
		}
	}

	result, err := h.processing.Start(c.Request.Context(), req.AudioBookID)
	if err != nil {
		h.logger.Error("Failed to start processing", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start processing",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.ProcessResponse{
		JobID:       result.Job.ID,
		AudioBookID: result.EntityID,
		JobType:     result.Job.JobType,
		Status:      result.Job.Status,
		Created:     result.Created,
	})
}

// Refresh handles POST /api/v1/audiobooks/:audio_book_id/refresh
// Queues a regeneration job for an existing audiobook.
func (h *ProcessingHandler) Refresh(c *gin.Context) {
	audioBookID := c.Param("audio_book_id")
	if _, err := uuid.Parse(audioBookID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "audio_book_id must be a valid UUID",
		})
		return
	}

	result, err := h.processing.Refresh(c.Request.Context(), audioBookID)
	if err != nil {
		h.logger.Error("Failed to refresh audiobook", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to refresh audiobook",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.ProcessResponse{
		JobID:       result.Job.ID,
		AudioBookID: result.EntityID,
		JobType:     result.Job.JobType,
		Status:      result.Job.Status,
		Created:     result.Created,
	})
}

// EntityJobs handles GET /api/v1/audiobooks/:audio_book_id/jobs
// Returns the processing history for an audiobook, newest first.
func (h *ProcessingHandler) EntityJobs(c *gin.Context) {
	audioBookID := c.Param("audio_book_id")
	if _, err := uuid.Parse(audioBookID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "audio_book_id must be a valid UUID",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be a positive integer",
			})
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	jobs, err := h.processing.History(c.Request.Context(), audioBookID, limit)
	if err != nil {
		h.logger.Error("Failed to get entity jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get jobs",
		})
		return
	}

	resp := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		resp[i] = dto.FromRecord(&jobs[i])
	}

	c.JSON(http.StatusOK, gin.H{"jobs": resp})
}

// EntityLatestJob handles GET /api/v1/audiobooks/:audio_book_id/jobs/latest
// Returns the most recent job touching an audiobook, 404 when it has none.
func (h *ProcessingHandler) EntityLatestJob(c *gin.Context) {
	audioBookID := c.Param("audio_book_id")
	if _, err := uuid.Parse(audioBookID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "audio_book_id must be a valid UUID",
		})
		return
	}

	rec, err := h.processing.Latest(c.Request.Context(), audioBookID)
	if err != nil {
		h.logger.Error("Failed to get latest job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get latest job",
		})
		return
	}

	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no jobs for this audiobook",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromRecord(rec))
}
