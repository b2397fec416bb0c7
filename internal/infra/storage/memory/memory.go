package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ReceiptRepo is an in-memory receipt journal, used when no database is
// configured and in tests.
type ReceiptRepo struct {
	mu       sync.RWMutex
	receipts []*domain.Receipt
}

// NewReceiptRepo creates an empty in-memory journal.
func NewReceiptRepo() *ReceiptRepo {
	return &ReceiptRepo{}
}

// Save saves a single receipt.
func (r *ReceiptRepo) Save(ctx context.Context, receipt *domain.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(receipt)
	return nil
}

// SaveBatch saves all receipts of a run.
func (r *ReceiptRepo) SaveBatch(ctx context.Context, receipts []*domain.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range receipts {
		r.save(receipt)
	}
	return nil
}

// save keeps at most one receipt per (batch, index), first write wins.
func (r *ReceiptRepo) save(receipt *domain.Receipt) {
	for _, existing := range r.receipts {
		if existing.BatchID == receipt.BatchID && existing.ItemIndex == receipt.ItemIndex {
			return
		}
	}
	cp := *receipt
	r.receipts = append(r.receipts, &cp)
}

// ListByBatch retrieves all receipts for a batch, ordered by item index.
func (r *ReceiptRepo) ListByBatch(ctx context.Context, batchID string) ([]*domain.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Receipt
	for _, receipt := range r.receipts {
		if receipt.BatchID == batchID {
			cp := *receipt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemIndex < out[j].ItemIndex })
	return out, nil
}

// ListRecent retrieves the most recent receipts.
func (r *ReceiptRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Receipt, 0, len(r.receipts))
	for _, receipt := range r.receipts {
		cp := *receipt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteOlderThan removes receipts created before the cutoff.
func (r *ReceiptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.receipts[:0]
	var deleted int64
	for _, receipt := range r.receipts {
		if receipt.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, receipt)
	}
	r.receipts = kept
	return deleted, nil
}

// Health reports storage availability; the in-memory journal is always up.
func (r *ReceiptRepo) Health(ctx context.Context) error {
	return nil
}
