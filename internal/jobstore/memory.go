package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// Memory is an in-process Store used in tests and single-node setups.
// It honors the same Create/Get/CompareAndSwap contract as Postgres.
type Memory struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewMemory creates an empty in-memory job store.
func NewMemory() *Memory {
	return &Memory{
		jobs: make(map[string]*domain.Job),
	}
}

func (s *Memory) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.JobID]; ok {
		return domain.ErrJobExists
	}

	s.jobs[job.JobID] = job.Clone()
	return nil
}

func (s *Memory) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	return job.Clone(), nil
}

func (s *Memory) CompareAndSwap(_ context.Context, jobID string, expected domain.Status, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}

	if stored.Status != expected {
		return domain.ErrStatusConflict
	}

	updated := job.Clone()
	updated.JobID = jobID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = updated
	job.UpdatedAt = updated.UpdatedAt

	return nil
}
