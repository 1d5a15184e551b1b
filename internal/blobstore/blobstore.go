// Package blobstore holds uploaded document bytes at an opaque source ref.
// The job record stores only the ref, never the bytes.
package blobstore

import "context"

// Store reads and writes raw document bytes.
type Store interface {
	// Put stores data under ref, overwriting any previous content.
	Put(ctx context.Context, ref, contentType string, data []byte) error

	// Fetch returns the bytes stored under ref, or domain.ErrStorageFault
	// if the ref is unknown or the backend is unavailable.
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
