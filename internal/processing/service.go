package processing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bookbytes/backend/internal/job"
	"github.com/bookbytes/backend/internal/jobstore"
)

// Notifier announces newly pending jobs to workers. Satisfied by the
// rabbitmq client; nil means workers rely on polling alone.
type Notifier interface {
	PublishJobReady(ctx context.Context, jobID, jobType string) error
}

// Service orchestrates job creation for audiobook processing. It owns two
// rules the store does not: one active job per entity, and the notify
// publish after creation.
type Service struct {
	store    *jobstore.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a new processing service
func NewService(store *jobstore.Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// StartResult reports the outcome of Start/Refresh. Created is false when
// an active job for the entity already existed and was returned instead.
type StartResult struct {
	Job      *job.Record
	EntityID string
	Created  bool
}

// Start queues an audiobook generation job for the given entity, minting
// an entity id when none is supplied. When the entity's latest job is
// still PENDING or PROCESSING, that job is returned instead of queueing a
// duplicate.
func (s *Service) Start(ctx context.Context, entityID string) (*StartResult, error) {
	return s.queue(ctx, entityID, job.TypeAudiobookGeneration)
}

// Refresh queues a regeneration job for an existing entity.
func (s *Service) Refresh(ctx context.Context, entityID string) (*StartResult, error) {
	return s.queue(ctx, entityID, job.TypeAudiobookRefresh)
}

func (s *Service) queue(ctx context.Context, entityID, jobType string) (*StartResult, error) {
	if entityID == "" {
		entityID = uuid.New().String()
	} else {
		latest, err := s.store.GetLatestJobForEntity(ctx, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to check latest job for entity: %w", err)
		}

		if latest != nil && latest.IsActive() {
			s.logger.Info("Entity already has an active job, not queueing another",
				slog.String("entity_id", entityID),
				slog.String("job_id", latest.ID),
				slog.String("status", latest.Status),
			)
			return &StartResult{Job: latest, EntityID: entityID, Created: false}, nil
		}
	}

	rec, err := s.store.Create(ctx, jobType, job.DefaultMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if _, err := s.store.CreateLink(ctx, rec.ID, entityID); err != nil {
		return nil, fmt.Errorf("failed to link job to entity: %w", err)
	}

	s.notify(ctx, rec)

	return &StartResult{Job: rec, EntityID: entityID, Created: true}, nil
}

// Retry asks the store to put a failed job back into the pool. False
// means the job is missing, not FAILED, or out of retry budget.
func (s *Service) Retry(ctx context.Context, jobID string) (bool, error) {
	ok, err := s.store.ScheduleRetry(ctx, jobID)
	if err != nil {
		return false, err
	}

	if ok {
		rec, err := s.store.GetByID(ctx, jobID)
		if err == nil {
			s.notify(ctx, rec)
		}
	}

	return ok, nil
}

// Status returns a job for polling.
func (s *Service) Status(ctx context.Context, jobID string) (*job.Record, error) {
	return s.store.GetByID(ctx, jobID)
}

// History returns the processing history for an entity, newest first.
func (s *Service) History(ctx context.Context, entityID string, limit int) ([]job.Record, error) {
	return s.store.GetJobsForEntity(ctx, entityID, limit)
}

// Latest returns the most recent job touching an entity, or nil.
func (s *Service) Latest(ctx context.Context, entityID string) (*job.Record, error) {
	return s.store.GetLatestJobForEntity(ctx, entityID)
}

func (s *Service) notify(ctx context.Context, rec *job.Record) {
	if s.notifier == nil {
		return
	}

	// Notification failures are logged, never surfaced: workers poll the
	// store regardless, so the job is still picked up.
	if err := s.notifier.PublishJobReady(ctx, rec.ID, rec.JobType); err != nil {
		s.logger.Warn("Failed to publish job notification",
			slog.String("job_id", rec.ID),
			slog.Any("error", err),
		)
	}
}
