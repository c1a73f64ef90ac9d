package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookbytes/backend/internal/job"
	"github.com/bookbytes/backend/internal/jobstore"
	"github.com/bookbytes/backend/internal/processing"
)

// Executor runs the work behind one job type. Execute is handed the
// claimed record as its exclusive working copy and a callback for
// progress reporting; the worker owns the terminal transition afterwards.
type Executor interface {
	Execute(ctx context.Context, rec *job.Record, report processing.ProgressFunc) error
}

// ExecError carries a machine-readable code alongside an execution
// failure; the code ends up in the job's error_code column.
type ExecError struct {
	Code string
	Err  error
}

func (e *ExecError) Error() string {
	return e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// AudiobookExecutor drives the audiobook pipeline for generation and
// refresh jobs. It resolves the entity behind the job through its link
// and leaves all domain work to the pipeline collaborator.
type AudiobookExecutor struct {
	store    *jobstore.Store
	pipeline processing.Pipeline
	logger   *slog.Logger
}

// NewAudiobookExecutor creates a new AudiobookExecutor
func NewAudiobookExecutor(store *jobstore.Store, pipeline processing.Pipeline, logger *slog.Logger) *AudiobookExecutor {
	return &AudiobookExecutor{
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}
}

func (e *AudiobookExecutor) Execute(ctx context.Context, rec *job.Record, report processing.ProgressFunc) error {
	link, err := e.store.GetLinkByJobID(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, job.ErrLinkNotFound) {
			return &ExecError{
				Code: "missing_entity_link",
				Err:  fmt.Errorf("job %s has no entity link", rec.ID),
			}
		}
		return fmt.Errorf("failed to resolve entity link: %w", err)
	}

	e.logger.Debug("Executing audiobook job",
		slog.String("job_id", rec.ID),
		slog.String("entity_id", link.EntityID),
	)

	switch rec.JobType {
	case job.TypeAudiobookGeneration:
		return e.pipeline.Generate(ctx, link.EntityID, report)
	case job.TypeAudiobookRefresh:
		return e.pipeline.Refresh(ctx, link.EntityID, report)
	default:
		return fmt.Errorf("%w: %s", job.ErrUnknownJobType, rec.JobType)
	}
}
