package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cuongbtq/docsummary/internal/pipeline"
	"github.com/cuongbtq/docsummary/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Orchestrator  *pipeline.Orchestrator
	Concurrency   int
	PrefetchCount int
	QueueName     string
}

// Worker consumes processing triggers from RabbitMQ and drives the
// orchestrator across a pool of goroutines.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	orchestrator  *pipeline.Orchestrator
	concurrency   int
	prefetchCount int
	queueName     string
	workerID      string
	jobsChan      chan *jobMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// jobMessage is one processing trigger pulled off the queue.
type jobMessage struct {
	JobID       string
	DeliveryTag uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		orchestrator:  cfg.Orchestrator,
		concurrency:   concurrency,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		workerID:      fmt.Sprintf("docsummary-worker-%s", uuid.New().String()[:8]),
		jobsChan:      make(chan *jobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs. It blocks until the context
// is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker pool.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
