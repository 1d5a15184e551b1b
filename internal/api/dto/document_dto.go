package dto

import (
	"strings"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// CreateDocumentRequest is the intake submission for the async variant.
type CreateDocumentRequest struct {
	DeclaredSize int64  `json:"declared_size" binding:"required"`
	ContentType  string `json:"content_type" binding:"required"`
}

// CreateDocumentResponse returns the handles the client needs next.
type CreateDocumentResponse struct {
	JobID     string `json:"job_id"`
	UploadURL string `json:"upload_url"`
	ResultURL string `json:"result_url"`
}

// ProcessRequest is the JSON body accepted by the synchronous endpoint
// when bytes are not sent raw.
type ProcessRequest struct {
	FileData string `json:"file_data"`
}

// ProcessResponse is the synchronous endpoint's success payload.
type ProcessResponse struct {
	ExtractedText   string            `json:"extracted_text"`
	Summary         []string          `json:"summary"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
}

// JobError is the stage-tagged failure carried by a failed job view.
type JobError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ResultView is the reduced projection served to pollers: status always,
// outcome fields only once the job is terminal.
type ResultView struct {
	JobID           string            `json:"job_id"`
	Status          string            `json:"status"`
	Summary         []string          `json:"summary,omitempty"`
	ExtractedText   string            `json:"extracted_text,omitempty"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Error           *JobError         `json:"error,omitempty"`
}

// NewResultView projects a job into its poller-facing view.
func NewResultView(job *domain.Job) ResultView {
	view := ResultView{
		JobID:  job.JobID,
		Status: string(job.Status),
	}

	// Pollers only distinguish in-flight from terminal; a job still waiting
	// for its bytes reads as processing.
	if job.Status == domain.StatusPending {
		view.Status = string(domain.StatusProcessing)
	}

	switch job.Status {
	case domain.StatusComplete:
		view.Summary = job.Summary
		view.ExtractedText = strings.Join(job.ExtractedText, "\n")
		view.ExtractedFields = job.ExtractedFields
	case domain.StatusFailed:
		view.Error = &JobError{
			Stage:   string(job.ErrorStage),
			Message: job.ErrorMessage,
		}
	}

	return view
}
