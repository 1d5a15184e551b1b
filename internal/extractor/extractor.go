// Package extractor adapts the external OCR capability: raw document bytes
// in, ordered non-empty text lines out.
package extractor

import "context"

// Extractor converts document bytes into text lines in reading order.
//
// A hard backend fault (unreachable, non-2xx, timeout) is returned as an
// error wrapping domain.ErrExtractionFault and never as a partial result.
// A successful call that legitimately found no text returns an empty slice
// and a nil error; classifying that outcome is the caller's job.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]string, error)
}
