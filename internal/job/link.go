package job

import "time"

// Link associates a job with one domain entity. The job side is unique:
// a job serves exactly one entity, while an entity accumulates a history
// of jobs over time. Created once at job-creation time, never updated.
type Link struct {
	ID        string    `db:"id" json:"id"`
	JobID     string    `db:"job_id" json:"job_id"`
	EntityID  string    `db:"entity_id" json:"entity_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
