package control

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/storage/memory"
	"github.com/vietddude/relayer/internal/sending/sender"
)

func validPayload() []byte {
	var program domain.PublicKey
	program[0] = 7
	return []byte(fmt.Sprintf(`
id: test
sets:
  - name: transfer
    instructions:
      - program_id: %s
`, program.String()))
}

type fakeQueue struct {
	completed map[string]bool
	locked    map[string]bool
	requeued  []string
	marked    []string
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		completed: make(map[string]bool),
		locked:    make(map[string]bool),
	}
}

func (q *fakeQueue) DequeueBatch(ctx context.Context) (string, []byte, bool, error) {
	return "", nil, false, nil
}

func (q *fakeQueue) EnqueueBatch(ctx context.Context, batchID string, payload []byte) error {
	q.requeued = append(q.requeued, batchID)
	return nil
}

func (q *fakeQueue) IsCompleted(ctx context.Context, batchID string) (bool, error) {
	return q.completed[batchID], nil
}

func (q *fakeQueue) AcquireBatchLock(ctx context.Context, batchID string, ttl time.Duration) (bool, error) {
	if q.locked[batchID] {
		return false, nil
	}
	q.locked[batchID] = true
	return true, nil
}

func (q *fakeQueue) ReleaseBatchLock(ctx context.Context, batchID string) error {
	q.locked[batchID] = false
	return nil
}

func (q *fakeQueue) MarkCompleted(ctx context.Context, batchID string, ttl time.Duration) error {
	q.completed[batchID] = true
	q.marked = append(q.marked, batchID)
	return nil
}

func successRunner(sets []domain.InstructionSet) Runner {
	return func(ctx context.Context, _ []domain.InstructionSet) (*domain.BatchResult, error) {
		items := make([]domain.ItemOutcome, len(sets))
		for i, set := range sets {
			items[i] = domain.ItemOutcome{
				Index:     i,
				SetName:   set.Name,
				Status:    domain.ItemConfirmed,
				Attempts:  1,
				Signature: fmt.Sprintf("sig-%d", i),
			}
		}
		return &domain.BatchResult{Successful: len(items), Items: items}, nil
	}
}

func TestProcessBatchJournalsAndMarksCompleted(t *testing.T) {
	queue := newFakeQueue()
	receipts := memory.NewReceiptRepo()

	var ranWith []domain.InstructionSet
	run := func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
		ranWith = sets
		return successRunner(sets)(ctx, sets)
	}

	w := NewWorker(DefaultWorkerConfig(), queue, run, receipts)
	if err := w.processBatch(context.Background(), "b1", validPayload()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}

	if len(ranWith) != 1 {
		t.Fatalf("Expected runner to receive 1 set, got %d", len(ranWith))
	}
	if !queue.completed["b1"] {
		t.Error("Batch should be marked completed")
	}

	saved, err := receipts.ListByBatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("ListByBatch failed: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("Expected 1 receipt, got %d", len(saved))
	}
	if saved[0].Status != string(domain.ItemConfirmed) {
		t.Errorf("Expected confirmed receipt, got %s", saved[0].Status)
	}
	if saved[0].BatchID != "b1" {
		t.Errorf("Receipt should carry the queue batch ID, got %s", saved[0].BatchID)
	}
}

func TestProcessBatchSkipsCompleted(t *testing.T) {
	queue := newFakeQueue()
	queue.completed["b1"] = true

	ran := false
	run := func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
		ran = true
		return nil, nil
	}

	w := NewWorker(DefaultWorkerConfig(), queue, run, memory.NewReceiptRepo())
	if err := w.processBatch(context.Background(), "b1", validPayload()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}
	if ran {
		t.Error("Completed batch must not be re-run")
	}
}

func TestProcessBatchSkipsLocked(t *testing.T) {
	queue := newFakeQueue()
	queue.locked["b1"] = true

	ran := false
	run := func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
		ran = true
		return nil, nil
	}

	w := NewWorker(DefaultWorkerConfig(), queue, run, memory.NewReceiptRepo())
	if err := w.processBatch(context.Background(), "b1", validPayload()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}
	if ran {
		t.Error("Locked batch must not be run by a second worker")
	}
	if queue.completed["b1"] {
		t.Error("Locked batch must not be marked completed")
	}
}

func TestProcessBatchRequeuesPreSubmissionFailure(t *testing.T) {
	queue := newFakeQueue()

	run := func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
		return nil, errors.New("initial anchor: connection refused")
	}

	w := NewWorker(DefaultWorkerConfig(), queue, run, memory.NewReceiptRepo())
	if err := w.processBatch(context.Background(), "b1", validPayload()); err == nil {
		t.Fatal("Expected error from failed run")
	}

	if len(queue.requeued) != 1 || queue.requeued[0] != "b1" {
		t.Errorf("Expected batch re-queued, got %v", queue.requeued)
	}
	if queue.completed["b1"] {
		t.Error("Failed batch must not be marked completed")
	}
	if queue.locked["b1"] {
		t.Error("Lock should be released after processing")
	}
}

func TestProcessBatchDropsPoison(t *testing.T) {
	for name, tc := range map[string]struct {
		payload []byte
		run     Runner
	}{
		"malformed yaml": {
			payload: []byte("sets: [\n"),
			run:     nil,
		},
		"empty batch": {
			payload: validPayload(),
			run: func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
				return nil, sender.ErrEmptyBatch
			},
		},
		"no identity": {
			payload: validPayload(),
			run: func(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
				return nil, sender.ErrNoSigningIdentity
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			queue := newFakeQueue()
			w := NewWorker(DefaultWorkerConfig(), queue, tc.run, memory.NewReceiptRepo())
			if err := w.processBatch(context.Background(), "b1", tc.payload); err != nil {
				t.Fatalf("processBatch failed: %v", err)
			}
			if len(queue.requeued) != 0 {
				t.Error("Poison batch must not be re-queued")
			}
			if !queue.completed["b1"] {
				t.Error("Poison batch should be marked completed so it is dropped")
			}
		})
	}
}
