package job

import "time"

// Job status constants
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Known job types for the BookBytes backend. The queue itself treats
// job_type as an opaque tag; this list exists for the API and workers.
const (
	TypeAudiobookGeneration = "audiobook_generation"
	TypeAudiobookRefresh    = "audiobook_refresh"
)

// DefaultMaxRetries is applied when a job is created without an explicit
// retry budget.
const DefaultMaxRetries = 3

// Storage bounds for error fields. MarkFailed truncates to these before
// writing so oversized messages never hit the database.
const (
	MaxErrorMessageLen = 2000
	MaxErrorCodeLen    = 50
)

// Record is one unit of asynchronous work. It carries no domain fields;
// domain entities attach themselves through a Link.
//
// State machine:
//
//	PENDING → PROCESSING → COMPLETED
//	                    ↘ FAILED → PENDING (retry, while budget remains)
type Record struct {
	ID           string     `db:"id" json:"id"`
	JobType      string     `db:"job_type" json:"job_type"`
	Status       string     `db:"status" json:"status"`
	Progress     int        `db:"progress" json:"progress"`
	CurrentStep  string     `db:"current_step" json:"current_step,omitempty"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
	ErrorCode    string     `db:"error_code" json:"error_code,omitempty"`
	Version      int        `db:"version" json:"version"`
	WorkerID     string     `db:"worker_id" json:"worker_id,omitempty"`
	RetryCount   int        `db:"retry_count" json:"retry_count"`
	MaxRetries   int        `db:"max_retries" json:"max_retries"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job reached a final status. A FAILED job
// with retry budget left can still re-enter the pool via ScheduleRetry.
func (r *Record) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// CanRetry reports whether ScheduleRetry would accept this job.
func (r *Record) CanRetry() bool {
	return r.Status == StatusFailed && r.RetryCount < r.MaxRetries
}

// IsActive reports whether the job is still queued or being worked on.
// Used by the processing service to suppress duplicate jobs per entity.
func (r *Record) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusProcessing
}
