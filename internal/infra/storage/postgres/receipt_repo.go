package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ReceiptRepo implements storage.ReceiptRepository using PostgreSQL.
type ReceiptRepo struct {
	db *DB
}

// NewReceiptRepo creates a new PostgreSQL receipt repository.
func NewReceiptRepo(db *DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

const insertReceipt = `
	INSERT INTO receipts (
		id, batch_id, item_index, set_name, signature, slot,
		status, failure_kind, error, attempts, created_at
	) VALUES (
		:id, :batch_id, :item_index, :set_name, :signature, :slot,
		:status, :failure_kind, :error, :attempts, :created_at
	)
	ON CONFLICT (batch_id, item_index) DO NOTHING`

// Save saves a single receipt.
func (r *ReceiptRepo) Save(ctx context.Context, receipt *domain.Receipt) error {
	if _, err := r.db.NamedExecContext(ctx, insertReceipt, receipt); err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

// SaveBatch saves all receipts of a run in one transaction.
func (r *ReceiptRepo) SaveBatch(ctx context.Context, receipts []*domain.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, receipt := range receipts {
		if _, err := tx.NamedExecContext(ctx, insertReceipt, receipt); err != nil {
			return fmt.Errorf("failed to save receipt %s/%d: %w", receipt.BatchID, receipt.ItemIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipts: %w", err)
	}
	return nil
}

// ListByBatch retrieves all receipts for a batch, ordered by item index.
func (r *ReceiptRepo) ListByBatch(ctx context.Context, batchID string) ([]*domain.Receipt, error) {
	var receipts []*domain.Receipt
	err := r.db.SelectContext(ctx, &receipts,
		`SELECT * FROM receipts WHERE batch_id = $1 ORDER BY item_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

// ListRecent retrieves the most recent receipts.
func (r *ReceiptRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Receipt, error) {
	var receipts []*domain.Receipt
	err := r.db.SelectContext(ctx, &receipts,
		`SELECT * FROM receipts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent receipts: %w", err)
	}
	return receipts, nil
}

// DeleteOlderThan removes receipts created before the cutoff.
func (r *ReceiptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete receipts: %w", err)
	}
	return res.RowsAffected()
}
