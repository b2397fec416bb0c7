package domain

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is the persisted record of a terminal item outcome. Only
// terminal outcomes are journaled; in-flight state is never persisted.
type Receipt struct {
	ID          string    `db:"id"`
	BatchID     string    `db:"batch_id"`
	ItemIndex   int       `db:"item_index"`
	SetName     string    `db:"set_name"`
	Signature   string    `db:"signature"`
	Slot        int64     `db:"slot"`
	Status      string    `db:"status"`
	FailureKind string    `db:"failure_kind"`
	Error       string    `db:"error"`
	Attempts    int       `db:"attempts"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewReceipt builds a receipt from one item outcome.
func NewReceipt(batchID string, item ItemOutcome) *Receipt {
	errMsg := ""
	if item.Err != nil {
		errMsg = item.Err.Error()
	}
	return &Receipt{
		ID:          uuid.NewString(),
		BatchID:     batchID,
		ItemIndex:   item.Index,
		SetName:     item.SetName,
		Signature:   item.Signature,
		Slot:        int64(item.Slot),
		Status:      string(item.Status),
		FailureKind: item.FailureKind,
		Error:       errMsg,
		Attempts:    item.Attempts,
		CreatedAt:   time.Now().UTC(),
	}
}

// ReceiptsFromResult builds receipts for every item in a batch result.
func ReceiptsFromResult(res *BatchResult) []*Receipt {
	receipts := make([]*Receipt, 0, len(res.Items))
	for _, item := range res.Items {
		receipts = append(receipts, NewReceipt(res.BatchID, item))
	}
	return receipts
}
