package jobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/bookbytes/backend/internal/job"
)

// Filter narrows a List query. Zero values mean "no filter".
type Filter struct {
	Status   string
	JobType  string
	PageSize int
	Cursor   *Cursor
}

// Cursor is a keyset-pagination position over (created_at, id) descending.
type Cursor struct {
	CreatedAt time.Time
	JobID     string
}

// List returns jobs newest first, fetching one row beyond PageSize so the
// caller can tell whether another page exists.
func (s *Store) List(ctx context.Context, filter Filter) ([]job.Record, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	if filter.JobType != "" {
		query += ` AND job_type = ?`
		args = append(args, filter.JobType)
	}

	if filter.Cursor != nil {
		query += ` AND (created_at, id) < (?, ?)`
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, filter.PageSize+1)

	var jobs []job.Record
	if err := s.db.SelectContext(ctx, &jobs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}
