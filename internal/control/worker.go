package control

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vietddude/relayer/internal/core/batchfile"
	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/storage"
	"github.com/vietddude/relayer/internal/sending/sender"
)

// WorkerConfig holds configuration for the queue worker.
type WorkerConfig struct {
	PollInterval  time.Duration // Sleep when queue empty (default: 5s)
	LockTTL       time.Duration // Processing lock TTL (default: 5m)
	CompletionTTL time.Duration // How long completion marks live (default: 7d)
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:  5 * time.Second,
		LockTTL:       5 * time.Minute,
		CompletionTTL: 7 * 24 * time.Hour,
	}
}

// Queue is the subset of queue operations the worker needs.
type Queue interface {
	DequeueBatch(ctx context.Context) (batchID string, payload []byte, found bool, err error)
	EnqueueBatch(ctx context.Context, batchID string, payload []byte) error
	IsCompleted(ctx context.Context, batchID string) (bool, error)
	AcquireBatchLock(ctx context.Context, batchID string, ttl time.Duration) (bool, error)
	ReleaseBatchLock(ctx context.Context, batchID string) error
	MarkCompleted(ctx context.Context, batchID string, ttl time.Duration) error
}

// Runner runs one batch to completion. A fresh run is created per batch
// because a sender instance submits exactly once.
type Runner func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error)

// Worker drains the submission queue: it dequeues batch specs, runs them
// through the sender, journals receipts, and marks batches completed so a
// later enqueue of the same ID is not submitted twice.
type Worker struct {
	cfg      WorkerConfig
	queue    Queue
	run      Runner
	receipts storage.ReceiptRepository
	log      *slog.Logger
}

// NewWorker creates a new queue worker.
func NewWorker(cfg WorkerConfig, queue Queue, run Runner, receipts storage.ReceiptRepository) *Worker {
	return &Worker{
		cfg:      cfg,
		queue:    queue,
		run:      run,
		receipts: receipts,
		log:      slog.Default().With("component", "worker"),
	}
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Starting queue worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Queue worker stopped")
			return nil
		default:
		}

		batchID, payload, found, err := w.queue.DequeueBatch(ctx)
		if err != nil {
			w.log.Error("Failed to dequeue batch", "error", err)
			w.sleep(ctx)
			continue
		}
		if !found {
			w.sleep(ctx)
			continue
		}

		if err := w.processBatch(ctx, batchID, payload); err != nil {
			w.log.Error("Failed to process batch", "batch", batchID, "error", err)
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.PollInterval):
	}
}

// processBatch runs a single dequeued batch with locking and completion
// marks. Only failures before any submission attempt are re-queued; once
// the sender has touched the network the batch is journaled and marked
// completed regardless of per-item outcomes.
func (w *Worker) processBatch(ctx context.Context, batchID string, payload []byte) error {
	done, err := w.queue.IsCompleted(ctx, batchID)
	if err != nil {
		return err
	}
	if done {
		w.log.Info("Batch already completed, skipping", "batch", batchID)
		return nil
	}

	locked, err := w.queue.AcquireBatchLock(ctx, batchID, w.cfg.LockTTL)
	if err != nil {
		return err
	}
	if !locked {
		w.log.Debug("Batch locked by another worker", "batch", batchID)
		return nil
	}
	defer func() {
		if err := w.queue.ReleaseBatchLock(ctx, batchID); err != nil {
			w.log.Warn("Failed to release batch lock", "batch", batchID, "error", err)
		}
	}()

	f, err := batchfile.Parse(payload)
	if err != nil {
		// Malformed payloads never become submittable; drop them.
		w.log.Error("Dropping malformed batch", "batch", batchID, "error", err)
		return w.queue.MarkCompleted(ctx, batchID, w.cfg.CompletionTTL)
	}
	sets, err := f.InstructionSets()
	if err != nil {
		w.log.Error("Dropping unloadable batch", "batch", batchID, "error", err)
		return w.queue.MarkCompleted(ctx, batchID, w.cfg.CompletionTTL)
	}

	w.log.Info("Processing batch", "batch", batchID, "sets", len(sets))

	result, err := w.run(ctx, sets)
	if err != nil {
		if errors.Is(err, sender.ErrEmptyBatch) || errors.Is(err, sender.ErrNoSigningIdentity) {
			// Poison: retrying cannot fix these.
			w.log.Error("Dropping unsendable batch", "batch", batchID, "error", err)
			return w.queue.MarkCompleted(ctx, batchID, w.cfg.CompletionTTL)
		}
		// Pre-submission failure (e.g. anchor fetch): safe to retry later.
		if reqErr := w.queue.EnqueueBatch(ctx, batchID, payload); reqErr != nil {
			w.log.Error("Failed to re-queue batch", "batch", batchID, "error", reqErr)
		}
		return err
	}

	result.BatchID = batchID
	if w.receipts != nil {
		if err := w.receipts.SaveBatch(ctx, domain.ReceiptsFromResult(result)); err != nil {
			w.log.Error("Failed to journal receipts", "batch", batchID, "error", err)
		}
	}

	w.log.Info("Batch processed", "batch", batchID,
		"successful", result.Successful, "failed", result.Failed())
	return w.queue.MarkCompleted(ctx, batchID, w.cfg.CompletionTTL)
}
