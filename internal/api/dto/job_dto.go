package dto

import (
	"time"

	"github.com/bookbytes/backend/internal/job"
)

type ProcessRequest struct {
	// AudioBookID is optional: when omitted a new audiobook id is minted.
	AudioBookID string `json:"audio_book_id"`
}

type ProcessResponse struct {
	JobID       string `json:"job_id"`
	AudioBookID string `json:"audio_book_id"`
	JobType     string `json:"job_type"`
	Status      string `json:"status"`
	Created     bool   `json:"created"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	JobType  string `form:"job_type"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type StatsResponse struct {
	Pending int `json:"pending"`
}

type JobDTO struct {
	JobID        string `json:"job_id"`
	JobType      string `json:"job_type"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	CurrentStep  string `json:"current_step,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	RetryCount   int    `json:"retry_count"`
	MaxRetries   int    `json:"max_retries"`
	CreatedAt    string `json:"created_at"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// FromRecord converts a job record into its API representation.
func FromRecord(rec *job.Record) JobDTO {
	dto := JobDTO{
		JobID:        rec.ID,
		JobType:      rec.JobType,
		Status:       rec.Status,
		Progress:     rec.Progress,
		CurrentStep:  rec.CurrentStep,
		ErrorMessage: rec.ErrorMessage,
		ErrorCode:    rec.ErrorCode,
		RetryCount:   rec.RetryCount,
		MaxRetries:   rec.MaxRetries,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
	}

	if rec.StartedAt != nil {
		dto.StartedAt = rec.StartedAt.Format(time.RFC3339)
	}
	if rec.CompletedAt != nil {
		dto.CompletedAt = rec.CompletedAt.Format(time.RFC3339)
	}

	return dto
}
