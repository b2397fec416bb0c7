package storage

import (
	"context"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ReceiptRepository journals terminal batch item outcomes. In-flight state
// is never persisted and a run is never resumed from storage.
type ReceiptRepository interface {
	// Save saves a single receipt
	Save(ctx context.Context, receipt *domain.Receipt) error

	// SaveBatch saves all receipts of a run in one transaction
	SaveBatch(ctx context.Context, receipts []*domain.Receipt) error

	// ListByBatch retrieves all receipts for a batch, ordered by item index
	ListByBatch(ctx context.Context, batchID string) ([]*domain.Receipt, error)

	// ListRecent retrieves the most recent receipts
	ListRecent(ctx context.Context, limit int) ([]*domain.Receipt, error)

	// DeleteOlderThan removes receipts created before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
