package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/docsummary/internal/blobstore"
	"github.com/cuongbtq/docsummary/internal/intake"
	"github.com/cuongbtq/docsummary/internal/jobstore"
	"github.com/cuongbtq/docsummary/internal/pipeline"
)

// Publisher enqueues a processing trigger once a job's bytes are in place.
// Satisfied by the RabbitMQ client.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
	IsConnected() bool
}

// HealthChecker reports whether a backing service is reachable.
// Satisfied by the PostgreSQL client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Logger    *slog.Logger
	Jobs      jobstore.Store
	Blobs     blobstore.Store
	Intake    *intake.Service
	Pipeline  *pipeline.Orchestrator
	Publisher Publisher
	DB        HealthChecker
}

// DocumentHandler serves the document processing endpoints.
type DocumentHandler struct {
	logger    *slog.Logger
	jobs      jobstore.Store
	blobs     blobstore.Store
	intake    *intake.Service
	pipeline  *pipeline.Orchestrator
	publisher Publisher
}

// NewDocumentHandler creates a DocumentHandler instance.
func NewDocumentHandler(deps *Dependencies) *DocumentHandler {
	return &DocumentHandler{
		logger:    deps.Logger,
		jobs:      deps.Jobs,
		blobs:     deps.Blobs,
		intake:    deps.Intake,
		pipeline:  deps.Pipeline,
		publisher: deps.Publisher,
	}
}
