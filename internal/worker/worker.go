package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookbytes/backend/internal/jobstore"
	"github.com/bookbytes/backend/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Store         *jobstore.Store
	RabbitClient  *rabbitmq.Client // optional; nil means polling only
	Concurrency   int
	PollInterval  time.Duration
	JobTypeFilter string // empty claims any job type
}

// Worker polls the job store, claims pending jobs, and dispatches them to
// registered executors. Any number of worker processes may run against
// the same store; the claim's conditional update is the only coordination
// between them.
type Worker struct {
	logger        *slog.Logger
	store         *jobstore.Store
	rabbitClient  *rabbitmq.Client
	concurrency   int
	pollInterval  time.Duration
	jobTypeFilter string
	workerID      string
	executors     map[string]Executor
	wg            sync.WaitGroup
	stopChan      chan struct{}
	wakeChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	return &Worker{
		logger:        cfg.Logger,
		store:         cfg.Store,
		rabbitClient:  cfg.RabbitClient,
		concurrency:   cfg.Concurrency,
		pollInterval:  cfg.PollInterval,
		jobTypeFilter: cfg.JobTypeFilter,
		workerID:      fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		executors:     make(map[string]Executor),
		stopChan:      make(chan struct{}),
		wakeChan:      make(chan struct{}, 1),
	}
}

// Register installs an executor for a job type. Must be called before
// Start.
func (w *Worker) Register(jobType string, executor Executor) {
	w.executors[jobType] = executor
}

// Start begins processing jobs and blocks until the context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("poll_interval", w.pollInterval),
		slog.String("job_type_filter", w.jobTypeFilter),
	)

	if w.rabbitClient != nil && w.rabbitClient.IsConnected() {
		w.wg.Add(1)
		go w.listenNotifications(ctx)
	} else {
		w.logger.Info("No notification broker, relying on polling alone")
	}

	w.spawnWorkerPool(ctx)

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
