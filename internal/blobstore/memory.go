package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// Memory is an in-process blob store for tests and single-node setups.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemory creates an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[string][]byte),
	}
}

func (s *Memory) Put(_ context.Context, ref, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[ref] = append([]byte(nil), data...)
	return nil
}

func (s *Memory) Fetch(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("%w: no document at ref %s", domain.ErrStorageFault, ref)
	}

	return append([]byte(nil), data...), nil
}
