package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookbytes/backend/internal/job"
)

// Error codes written to failed jobs.
const (
	codeUnknownJobType = "unknown_job_type"
	codeCanceled       = "canceled"
	codeExecution      = "execution_error"
)

// runJob executes one claimed job through its registered executor and
// records the terminal transition. The claimed record is this goroutine's
// exclusive working copy until MarkCompleted, MarkFailed, or a retry.
//
// Store writes use a detached context: shutdown cancels the executor, and
// the resulting failure must still be recorded or the job is stranded in
// PROCESSING with no reclaimer.
func (w *Worker) runJob(ctx context.Context, workerName string, rec *job.Record) {
	storeCtx := context.WithoutCancel(ctx)

	logger := w.logger.With(
		slog.String("worker_name", workerName),
		slog.String("job_id", rec.ID),
		slog.String("job_type", rec.JobType),
	)

	logger.Info("Processing job",
		slog.Int("version", rec.Version),
		slog.Int("retry_count", rec.RetryCount),
	)

	executor, ok := w.executors[rec.JobType]
	if !ok {
		// No executor will ever handle this type; fail without retry so
		// the job does not bounce through the pool until its budget runs
		// out.
		logger.Error("No executor registered for job type")
		msg := fmt.Sprintf("no executor registered for job type %q", rec.JobType)
		if _, err := w.store.MarkFailed(storeCtx, rec.ID, msg, codeUnknownJobType); err != nil {
			logger.Error("Failed to mark job failed", slog.Any("error", err))
		}
		return
	}

	report := func(progress int, step string) error {
		found, err := w.store.UpdateProgress(storeCtx, rec.ID, progress, step)
		if err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		if !found {
			logger.Warn("Progress update hit a missing job",
				slog.Int("progress", progress),
			)
		}
		return nil
	}

	execErr := executor.Execute(ctx, rec, report)

	if execErr == nil {
		if _, err := w.store.MarkCompleted(storeCtx, rec.ID); err != nil {
			logger.Error("Failed to mark job completed", slog.Any("error", err))
			return
		}
		logger.Info("Job completed successfully")
		return
	}

	logger.Error("Job execution failed", slog.Any("error", execErr))

	if _, err := w.store.MarkFailed(storeCtx, rec.ID, execErr.Error(), errorCode(execErr)); err != nil {
		logger.Error("Failed to mark job failed", slog.Any("error", err))
		return
	}

	retried, err := w.store.ScheduleRetry(storeCtx, rec.ID)
	if err != nil {
		logger.Error("Failed to schedule retry", slog.Any("error", err))
		return
	}

	if retried {
		logger.Info("Job will be retried",
			slog.Int("retry_count", rec.RetryCount+1),
			slog.Int("max_retries", rec.MaxRetries),
		)
	} else {
		logger.Warn("Job failed permanently, retries exhausted",
			slog.Int("retry_count", rec.RetryCount),
			slog.Int("max_retries", rec.MaxRetries),
		)
	}
}

// errorCode maps an execution error to the machine-readable code stored
// on the job.
func errorCode(err error) string {
	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.Code != "" {
		return execErr.Code
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return codeCanceled
	}

	return codeExecution
}
