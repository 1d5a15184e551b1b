// Package intake accepts document submissions and creates the pending job
// record. Validation happens before any write: a rejected submission never
// leaves a partial job behind.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/docsummary/internal/domain"
	"github.com/cuongbtq/docsummary/internal/jobstore"
)

// DefaultMaxUploadBytes caps declared document size at 10 MB.
const DefaultMaxUploadBytes = 10 << 20

// DefaultAllowedTypes is the content-type allow-list.
var DefaultAllowedTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// Config holds intake limits.
type Config struct {
	MaxUploadBytes int64
	AllowedTypes   []string
}

// Service validates submissions and creates pending jobs.
type Service struct {
	jobs           jobstore.Store
	maxUploadBytes int64
	allowedTypes   map[string]struct{}
	logger         *slog.Logger
}

// Handles are the references returned to the client: where to send bytes
// and where to poll for the outcome.
type Handles struct {
	UploadPath string
	ResultPath string
}

// NewService creates an intake service. Zero-value limits fall back to the
// defaults above.
func NewService(jobs jobstore.Store, cfg *Config, logger *slog.Logger) *Service {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	types := cfg.AllowedTypes
	if len(types) == 0 {
		types = DefaultAllowedTypes
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}

	return &Service{
		jobs:           jobs,
		maxUploadBytes: maxBytes,
		allowedTypes:   allowed,
		logger:         logger,
	}
}

// MaxUploadBytes returns the configured size ceiling.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Begin validates the declared submission and creates exactly one pending
// job. Violations return an error wrapping domain.ErrInvalidInput with no
// store write.
func (s *Service) Begin(ctx context.Context, declaredSize int64, contentType string) (*domain.Job, *Handles, error) {
	if declaredSize <= 0 {
		return nil, nil, fmt.Errorf("%w: declared size must be positive", domain.ErrInvalidInput)
	}
	if declaredSize > s.maxUploadBytes {
		return nil, nil, fmt.Errorf("%w: declared size %d exceeds limit %d", domain.ErrInvalidInput, declaredSize, s.maxUploadBytes)
	}
	if _, ok := s.allowedTypes[contentType]; !ok {
		return nil, nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, contentType)
	}

	now := time.Now().UTC()
	jobID := uuid.New().String()
	job := &domain.Job{
		JobID:        jobID,
		Status:       domain.StatusPending,
		SourceRef:    "doc/" + jobID,
		ContentType:  contentType,
		DeclaredSize: declaredSize,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("content_type", contentType),
		slog.Int64("declared_size", declaredSize),
	)

	handles := &Handles{
		UploadPath: fmt.Sprintf("/api/v1/documents/%s/content", job.JobID),
		ResultPath: fmt.Sprintf("/api/v1/documents/%s/result", job.JobID),
	}

	return job, handles, nil
}
