package domain

import "time"

// Status is the lifecycle state of a document job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Stage identifies which processing step produced a failure.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageSummarization Stage = "summarization"
	StageStorage       Stage = "storage"
)

// SummaryMaxLines is the upper bound on stored summary lines.
const SummaryMaxLines = 3

// Job is one document-processing request tracked from intake to terminal outcome.
type Job struct {
	JobID           string
	Status          Status
	SourceRef       string
	ContentType     string
	DeclaredSize    int64
	ExtractedText   []string
	ExtractedFields map[string]string
	Summary         []string
	ErrorStage      Stage
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the forward transition from -> to is legal.
// Transitions are monotonic: pending -> processing -> {complete|failed},
// with no regression out of a terminal state.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusComplete || to == StatusFailed
	}
	return false
}

// Clone returns a deep copy of the job so callers cannot alias slices or
// maps held by a store.
func (j *Job) Clone() *Job {
	cp := *j
	if j.ExtractedText != nil {
		cp.ExtractedText = append([]string(nil), j.ExtractedText...)
	}
	if j.Summary != nil {
		cp.Summary = append([]string(nil), j.Summary...)
	}
	if j.ExtractedFields != nil {
		cp.ExtractedFields = make(map[string]string, len(j.ExtractedFields))
		for k, v := range j.ExtractedFields {
			cp.ExtractedFields[k] = v
		}
	}
	return &cp
}
