package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for submissions rejected at intake
	// (oversize, unsupported content type) before any job is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtractionFault is returned when the OCR backend is unreachable,
	// rejects the input, or times out.
	ErrExtractionFault = errors.New("extraction fault")

	// ErrNoTextFound is returned when OCR succeeded but yielded zero text
	// lines. This is a business outcome, not a backend fault.
	ErrNoTextFound = errors.New("no text found")

	// ErrSummarizationFault is returned when the generation backend is
	// unreachable, returns non-2xx, or responds with a malformed payload.
	ErrSummarizationFault = errors.New("summarization fault")

	// ErrStorageFault is returned when the blob store or job store is
	// unavailable.
	ErrStorageFault = errors.New("storage fault")

	// ErrJobNotFound is returned when a job id is unknown to the store.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when creating a job whose id is already taken.
	ErrJobExists = errors.New("job already exists")

	// ErrStatusConflict is returned by a compare-and-swap write whose
	// expected status no longer matches the stored one.
	ErrStatusConflict = errors.New("job status conflict")

	// ErrJobAlreadyClaimed is returned when a processing run finds the job
	// no longer in pending state; the trigger was a duplicate.
	ErrJobAlreadyClaimed = errors.New("job already claimed or terminal")
)

// StageError binds a pipeline failure to the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it was raised in.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
