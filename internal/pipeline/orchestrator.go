// Package pipeline drives a document job through its state machine:
// pending -> processing -> {complete | failed}. Every transition is a
// compare-and-swap write guarded by the last observed status, so duplicate
// triggers and racing workers resolve without locks: the loser aborts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/docsummary/internal/blobstore"
	"github.com/cuongbtq/docsummary/internal/domain"
	"github.com/cuongbtq/docsummary/internal/extractor"
	"github.com/cuongbtq/docsummary/internal/fields"
	"github.com/cuongbtq/docsummary/internal/jobstore"
	"github.com/cuongbtq/docsummary/internal/summarizer"
)

// noTextMessage is the terminal business outcome recorded when OCR
// succeeds but finds nothing.
const noTextMessage = "no text found"

// Config holds orchestrator dependencies and limits.
type Config struct {
	Jobs       jobstore.Store
	Blobs      blobstore.Store
	Extractor  extractor.Extractor
	Summarizer summarizer.Summarizer
	// RunTimeout bounds the blob fetch + OCR + summarization sequence for
	// one job. Zero means 60 seconds.
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// Orchestrator executes processing runs against the job store.
type Orchestrator struct {
	jobs       jobstore.Store
	blobs      blobstore.Store
	extractor  extractor.Extractor
	summarizer summarizer.Summarizer
	runTimeout time.Duration
	logger     *slog.Logger
}

// Result is the outcome of one processing sequence.
type Result struct {
	Lines   []string
	Fields  map[string]string
	Summary []string
}

// FullText returns the extracted lines joined by newlines.
func (r *Result) FullText() string {
	return strings.Join(r.Lines, "\n")
}

// New creates an orchestrator.
func New(cfg *Config) *Orchestrator {
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Orchestrator{
		jobs:       cfg.Jobs,
		blobs:      cfg.Blobs,
		extractor:  cfg.Extractor,
		summarizer: cfg.Summarizer,
		runTimeout: timeout,
		logger:     cfg.Logger,
	}
}

// Run executes one processing attempt for jobID.
//
// Exactly one concurrent attempt can claim the pending job; all others
// return domain.ErrJobAlreadyClaimed with no side effect, which makes
// re-delivered triggers safe. Faults inside the run are recorded on the
// job as a stage-tagged failed state and never propagate past Run, so
// pollers always see a coherent terminal result.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if job.Status != domain.StatusPending {
		return domain.ErrJobAlreadyClaimed
	}

	// Step 1: claim pending -> processing. Losing the swap means another
	// worker already owns this job.
	job.Status = domain.StatusProcessing
	if err := o.jobs.CompareAndSwap(ctx, jobID, domain.StatusPending, job); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return domain.ErrJobAlreadyClaimed
		}
		return fmt.Errorf("failed to claim job %s: %w", jobID, err)
	}

	o.logger.Info("Job claimed for processing",
		slog.String("job_id", jobID),
		slog.String("source_ref", job.SourceRef),
	)

	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	result, stageErr := o.execute(runCtx, job.SourceRef)
	if stageErr != nil {
		o.failJob(ctx, job, stageErr)
		return nil
	}

	// Step 6: text, fields and summary land atomically with the status.
	job.Status = domain.StatusComplete
	job.ExtractedText = result.Lines
	job.ExtractedFields = result.Fields
	job.Summary = result.Summary
	if err := o.jobs.CompareAndSwap(ctx, jobID, domain.StatusProcessing, job); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// Another writer advanced the job; abandon this attempt.
			o.logger.Warn("Completion write lost status race",
				slog.String("job_id", jobID),
			)
			return nil
		}
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	o.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.Int("lines", len(result.Lines)),
		slog.Int("summary_lines", len(result.Summary)),
	)

	return nil
}

// ProcessSync runs the extraction + summarization sequence inline for the
// synchronous endpoint. No job record is involved; errors surface to the
// caller typed by the shared taxonomy.
func (o *Orchestrator) ProcessSync(ctx context.Context, data []byte) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	lines, err := o.extractor.Extract(runCtx, data)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrNoTextFound
	}

	result := &Result{
		Lines:  lines,
		Fields: fields.Parse(lines),
	}

	summary, err := o.summarizer.Summarize(runCtx, result.FullText(), domain.SummaryMaxLines)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	return result, nil
}

// execute runs steps 2-5 and classifies any failure to the stage it
// happened in. A context deadline counts against the stage in flight.
func (o *Orchestrator) execute(ctx context.Context, sourceRef string) (*Result, *domain.StageError) {
	// Step 2: load raw bytes.
	data, err := o.blobs.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, domain.NewStageError(domain.StageStorage, err)
	}

	// Step 3: OCR. A zero-line success is a terminal business outcome,
	// distinct from a backend fault.
	lines, err := o.extractor.Extract(ctx, data)
	if err != nil {
		return nil, domain.NewStageError(domain.StageExtraction, err)
	}
	if len(lines) == 0 {
		return nil, domain.NewStageError(domain.StageExtraction, domain.ErrNoTextFound)
	}

	// Step 4: best-effort structured fields; absence is not an error.
	result := &Result{
		Lines:  lines,
		Fields: fields.Parse(lines),
	}

	// Step 5: summarize the joined text.
	summary, err := o.summarizer.Summarize(ctx, result.FullText(), domain.SummaryMaxLines)
	if err != nil {
		return nil, domain.NewStageError(domain.StageSummarization, err)
	}
	result.Summary = summary

	return result, nil
}

// failJob records a stage-tagged terminal failure. A lost swap means
// another writer already advanced the job, so the failure is dropped
// silently.
func (o *Orchestrator) failJob(ctx context.Context, job *domain.Job, stageErr *domain.StageError) {
	message := stageErr.Err.Error()
	if errors.Is(stageErr.Err, domain.ErrNoTextFound) {
		message = noTextMessage
	}

	o.logger.Warn("Job failed",
		slog.String("job_id", job.JobID),
		slog.String("stage", string(stageErr.Stage)),
		slog.String("error", message),
	)

	job.Status = domain.StatusFailed
	job.ExtractedText = nil
	job.ExtractedFields = nil
	job.Summary = nil
	job.ErrorStage = stageErr.Stage
	job.ErrorMessage = message

	err := o.jobs.CompareAndSwap(ctx, job.JobID, domain.StatusProcessing, job)
	if err != nil && !errors.Is(err, domain.ErrStatusConflict) {
		o.logger.Error("Failed to record job failure",
			slog.String("job_id", job.JobID),
			slog.Any("error", err),
		)
	}
}
