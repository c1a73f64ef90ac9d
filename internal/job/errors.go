package job

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrLinkNotFound is returned when a job has no entity link
	ErrLinkNotFound = errors.New("job link not found")

	// ErrLinkExists is returned when creating a second link for a job that
	// already has one (the job side of the relation is unique)
	ErrLinkExists = errors.New("job already linked to an entity")

	// ErrUnknownJobType is returned by the worker when no executor is
	// registered for a claimed job's type
	ErrUnknownJobType = errors.New("no executor registered for job type")
)
