package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/bookbytes/backend/internal/job"
)

// pqUniqueViolation is the postgres error code for unique_violation.
const pqUniqueViolation = "23505"

// CreateLink attaches a job to a domain entity. The job_id column is
// unique, so a second link for the same job fails with job.ErrLinkExists.
// Callers create exactly one link per job, at job-creation time.
func (s *Store) CreateLink(ctx context.Context, jobID, entityID string) (*job.Link, error) {
	link := &job.Link{
		ID:        uuid.New().String(),
		JobID:     jobID,
		EntityID:  entityID,
		CreatedAt: s.now(),
	}

	query := s.db.Rebind(`
		INSERT INTO job_links (id, job_id, entity_id, created_at)
		VALUES (?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query, link.ID, link.JobID, link.EntityID, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, job.ErrLinkExists
		}
		return nil, fmt.Errorf("failed to create job link: %w", err)
	}

	s.logger.Info("Job linked to entity",
		slog.String("job_id", jobID),
		slog.String("entity_id", entityID),
	)

	return link, nil
}

// GetLinkByJobID returns the link for a job, or job.ErrLinkNotFound.
func (s *Store) GetLinkByJobID(ctx context.Context, jobID string) (*job.Link, error) {
	var link job.Link
	query := s.db.Rebind(`
		SELECT id, job_id, entity_id, created_at
		FROM job_links
		WHERE job_id = ?
	`)

	err := s.db.GetContext(ctx, &link, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get job link: %w", err)
	}

	return &link, nil
}

// GetJobsForEntity returns the processing history for an entity, newest
// job first.
func (s *Store) GetJobsForEntity(ctx context.Context, entityID string, limit int) ([]job.Record, error) {
	query := s.db.Rebind(`
		SELECT ` + prefixedJobColumns + `
		FROM jobs j
		JOIN job_links l ON l.job_id = j.id
		WHERE l.entity_id = ?
		ORDER BY j.created_at DESC, j.id DESC
		LIMIT ?
	`)

	var jobs []job.Record
	if err := s.db.SelectContext(ctx, &jobs, query, entityID, limit); err != nil {
		return nil, fmt.Errorf("failed to get jobs for entity: %w", err)
	}

	return jobs, nil
}

// GetLatestJobForEntity returns the most recent job touching an entity,
// or (nil, nil) when the entity has no jobs. Used to decide whether a new
// job should be queued or an existing one awaited.
func (s *Store) GetLatestJobForEntity(ctx context.Context, entityID string) (*job.Record, error) {
	query := s.db.Rebind(`
		SELECT ` + prefixedJobColumns + `
		FROM jobs j
		JOIN job_links l ON l.job_id = j.id
		WHERE l.entity_id = ?
		ORDER BY j.created_at DESC, j.id DESC
		LIMIT 1
	`)

	var rec job.Record
	err := s.db.GetContext(ctx, &rec, query, entityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest job for entity: %w", err)
	}

	return &rec, nil
}

const prefixedJobColumns = `j.id, j.job_type, j.status, j.progress, j.current_step, j.error_message,
		j.error_code, j.version, j.worker_id, j.retry_count, j.max_retries,
		j.created_at, j.updated_at, j.started_at, j.completed_at`

// isUniqueViolation recognizes unique-constraint failures from both
// supported drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	// Only unique violations count; other constraint failures (foreign
	// key, not null) keep their own error so the drivers agree.
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
