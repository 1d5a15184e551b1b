// Package jobstore persists document jobs keyed by job id. The conditional
// CompareAndSwap write is the sole concurrency control in the system: a
// writer whose expected status is stale loses and abandons its attempt.
package jobstore

import (
	"context"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// Store is the durable mapping from job id to job record.
type Store interface {
	// Create inserts a new job. It must never overwrite an existing id;
	// a duplicate id yields domain.ErrJobExists.
	Create(ctx context.Context, job *domain.Job) error

	// Get returns the job for id, or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*domain.Job, error)

	// CompareAndSwap writes job only if the stored status still equals
	// expected, advancing UpdatedAt. A mismatch yields
	// domain.ErrStatusConflict and leaves the record untouched.
	CompareAndSwap(ctx context.Context, jobID string, expected domain.Status, job *domain.Job) error
}
