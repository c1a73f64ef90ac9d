package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookbytes/backend/internal/job"
)

const jobColumns = `id, job_type, status, progress, current_step, error_message, error_code,
		version, worker_id, retry_count, max_retries, created_at, updated_at, started_at, completed_at`

// Store implements the claim/progress/complete/fail/retry protocol over a
// SQL database. All coordination between workers happens through the
// conditional update in ClaimNext; no other operation needs cross-worker
// coordination. Queries use ? placeholders and are rebound per driver, so
// the same store runs on postgres (production) and sqlite3 (local dev,
// tests).
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store instance
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new PENDING job. A negative maxRetries selects the
// default budget; zero means the job may never be retried.
func (s *Store) Create(ctx context.Context, jobType string, maxRetries int) (*job.Record, error) {
	if maxRetries < 0 {
		maxRetries = job.DefaultMaxRetries
	}

	now := s.now()
	rec := &job.Record{
		ID:         uuid.New().String(),
		JobType:    jobType,
		Status:     job.StatusPending,
		Progress:   0,
		Version:    1,
		RetryCount: 0,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := s.db.Rebind(`
		INSERT INTO jobs (id, job_type, status, progress, version, retry_count, max_retries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.JobType, rec.Status, rec.Progress,
		rec.Version, rec.RetryCount, rec.MaxRetries,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", rec.ID),
		slog.String("job_type", rec.JobType),
		slog.Int("max_retries", rec.MaxRetries),
	)

	return rec, nil
}

// GetByID retrieves a job by its ID.
func (s *Store) GetByID(ctx context.Context, jobID string) (*job.Record, error) {
	var rec job.Record
	query := s.db.Rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`)

	err := s.db.GetContext(ctx, &rec, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &rec, nil
}

// ClaimNext atomically claims the oldest PENDING job, optionally filtered
// by job type. The claim is a conditional update keyed on (id, version):
// when another worker wins the race, zero rows are affected and ClaimNext
// returns (nil, nil), indistinguishable from an empty queue. The caller is
// expected to poll again later, never to retry the same row.
func (s *Store) ClaimNext(ctx context.Context, workerID, jobType string) (*job.Record, error) {
	query := `SELECT id, version FROM jobs WHERE status = ?`
	args := []interface{}{job.StatusPending}

	if jobType != "" {
		query += ` AND job_type = ?`
		args = append(args, jobType)
	}

	query += ` ORDER BY created_at ASC, id ASC LIMIT 1`

	var candidate struct {
		ID      string `db:"id"`
		Version int    `db:"version"`
	}

	err := s.db.GetContext(ctx, &candidate, s.db.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select pending job: %w", err)
	}

	now := s.now()
	claim := s.db.Rebind(`
		UPDATE jobs
		SET status = ?, worker_id = ?, started_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`)

	result, err := s.db.ExecContext(ctx, claim,
		job.StatusProcessing, workerID, now, now,
		candidate.ID, candidate.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		// Lost the race to another worker. Treated as "no job available".
		s.logger.Debug("Claim lost race",
			slog.String("job_id", candidate.ID),
			slog.String("worker_id", workerID),
		)
		return nil, nil
	}

	claimed, err := s.GetByID(ctx, candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload claimed job: %w", err)
	}

	s.logger.Info("Job claimed",
		slog.String("job_id", claimed.ID),
		slog.String("worker_id", workerID),
		slog.String("job_type", claimed.JobType),
		slog.Int("version", claimed.Version),
	)

	return claimed, nil
}

// UpdateProgress updates the advisory progress fields. Progress is clamped
// to [0,100]; step is written only when non-empty. There is no ownership
// check here: progress is informational, not safety-critical.
func (s *Store) UpdateProgress(ctx context.Context, jobID string, progress int, step string) (bool, error) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	query := `UPDATE jobs SET progress = ?, updated_at = ?`
	args := []interface{}{progress, s.now()}

	if step != "" {
		query += `, current_step = ?`
		args = append(args, step)
	}

	query += ` WHERE id = ?`
	args = append(args, jobID)

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("failed to update job progress: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// MarkCompleted transitions a job to COMPLETED with full progress. Calling
// it twice is harmless; completed_at keeps the first call's timestamp.
func (s *Store) MarkCompleted(ctx context.Context, jobID string) (bool, error) {
	now := s.now()
	query := s.db.Rebind(`
		UPDATE jobs
		SET status = ?, progress = 100, completed_at = COALESCE(completed_at, ?), updated_at = ?
		WHERE id = ?
	`)

	result, err := s.db.ExecContext(ctx, query, job.StatusCompleted, now, now, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to mark job completed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		s.logger.Info("Job completed", slog.String("job_id", jobID))
	}

	return affected > 0, nil
}

// MarkFailed transitions a job to FAILED and records the error pair,
// truncated to the storage bounds. Failing is always permitted; the retry
// budget is consulted only by ScheduleRetry.
func (s *Store) MarkFailed(ctx context.Context, jobID, errorMessage, errorCode string) (bool, error) {
	now := s.now()
	query := s.db.Rebind(`
		UPDATE jobs
		SET status = ?, error_message = ?, error_code = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		job.StatusFailed,
		truncate(errorMessage, job.MaxErrorMessageLen),
		truncate(errorCode, job.MaxErrorCodeLen),
		now, now, jobID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		s.logger.Warn("Job failed",
			slog.String("job_id", jobID),
			slog.String("error_code", errorCode),
		)
	}

	return affected > 0, nil
}

// ScheduleRetry puts a FAILED job back into the pool when retry budget
// remains. The job re-enters PENDING as if newly created except for the
// incremented retry counter. Returns false without change when the job is
// missing, not FAILED, or out of retries; that is how callers detect a
// terminally failed job.
func (s *Store) ScheduleRetry(ctx context.Context, jobID string) (bool, error) {
	rec, err := s.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	if !rec.CanRetry() {
		return false, nil
	}

	// The WHERE clause re-checks the state read above so a concurrent
	// transition cannot be clobbered.
	query := s.db.Rebind(`
		UPDATE jobs
		SET status = ?, retry_count = ?, worker_id = '', started_at = NULL,
		    completed_at = NULL, error_message = '', error_code = '', updated_at = ?
		WHERE id = ? AND status = ? AND retry_count = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		job.StatusPending, rec.RetryCount+1, s.now(),
		jobID, job.StatusFailed, rec.RetryCount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to schedule retry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		s.logger.Info("Job retry scheduled",
			slog.String("job_id", jobID),
			slog.Int("retry_count", rec.RetryCount+1),
			slog.Int("max_retries", rec.MaxRetries),
		)
	}

	return affected > 0, nil
}

// GetByStatus returns jobs with the given status, oldest first.
func (s *Store) GetByStatus(ctx context.Context, status string, limit int) ([]job.Record, error) {
	query := s.db.Rebind(`
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`)

	var jobs []job.Record
	if err := s.db.SelectContext(ctx, &jobs, query, status, limit); err != nil {
		return nil, fmt.Errorf("failed to get jobs by status: %w", err)
	}

	return jobs, nil
}

// GetByJobType returns jobs of the given type, newest first.
func (s *Store) GetByJobType(ctx context.Context, jobType string, limit int) ([]job.Record, error) {
	query := s.db.Rebind(`
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE job_type = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	var jobs []job.Record
	if err := s.db.SelectContext(ctx, &jobs, query, jobType, limit); err != nil {
		return nil, fmt.Errorf("failed to get jobs by type: %w", err)
	}

	return jobs, nil
}

// CountPending returns the number of PENDING jobs (for monitoring).
func (s *Store) CountPending(ctx context.Context) (int, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM jobs WHERE status = ?`)

	if err := s.db.GetContext(ctx, &count, query, job.StatusPending); err != nil {
		return 0, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	return count, nil
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
