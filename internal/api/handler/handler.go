package handler

import (
	"log/slog"

	"github.com/bookbytes/backend/internal/jobstore"
	"github.com/bookbytes/backend/internal/processing"
	"github.com/bookbytes/backend/shared/database"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	DBClient   *database.Client
	Store      *jobstore.Store
	Processing *processing.Service
}

// JobHandler handles job monitoring and retry HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	store      *jobstore.Store
	processing *processing.Service
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		store:      deps.Store,
		processing: deps.Processing,
	}
}

// ProcessingHandler handles audiobook processing HTTP requests
type ProcessingHandler struct {
	logger     *slog.Logger
	processing *processing.Service
}

// NewProcessingHandler creates a new ProcessingHandler instance
func NewProcessingHandler(deps *Dependencies) *ProcessingHandler {
	return &ProcessingHandler{
		logger:     deps.Logger,
		processing: deps.Processing,
	}
}
