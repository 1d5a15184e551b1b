package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/docsummary/internal/domain"
)

// processJob runs one orchestrator attempt for a trigger message.
//
// The orchestrator owns all job-state bookkeeping: any fault it can
// classify lands on the record as a stage-tagged failure and Run returns
// nil, so the message is acked. Errors escaping Run mean the attempt had
// no durable effect and the NACK decision falls to shouldRequeue.
func (w *Worker) processJob(ctx context.Context, msg *jobMessage) error {
	w.logger.Info("Processing trigger",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	err := w.orchestrator.Run(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			w.logger.Warn("Job already claimed, skipping duplicate trigger",
				slog.String("job_id", msg.JobID),
			)
		}
		return err
	}

	w.logger.Info("Trigger processed",
		slog.String("job_id", msg.JobID),
	)

	return nil
}
