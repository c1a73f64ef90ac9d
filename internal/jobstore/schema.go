package jobstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is portable across the two supported drivers (postgres, sqlite3):
// text ids, integer counters, driver-agnostic timestamps written from Go.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id            TEXT PRIMARY KEY,
		job_type      TEXT NOT NULL,
		status        TEXT NOT NULL,
		progress      INTEGER NOT NULL DEFAULT 0,
		current_step  TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		error_code    TEXT NOT NULL DEFAULT '',
		version       INTEGER NOT NULL DEFAULT 1,
		worker_id     TEXT NOT NULL DEFAULT '',
		retry_count   INTEGER NOT NULL DEFAULT 0,
		max_retries   INTEGER NOT NULL DEFAULT 3,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		started_at    TIMESTAMP,
		completed_at  TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_job_type ON jobs (job_type)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
	`CREATE TABLE IF NOT EXISTS job_links (
		id         TEXT PRIMARY KEY,
		job_id     TEXT NOT NULL UNIQUE REFERENCES jobs (id) ON DELETE CASCADE,
		entity_id  TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_links_entity_id ON job_links (entity_id)`,
}

// Migrate creates the jobs and job_links tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply job schema: %w", err)
		}
	}
	return nil
}
