package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
)

func receipt(batchID string, index int, createdAt time.Time) *domain.Receipt {
	return &domain.Receipt{
		ID:        batchID + "-" + string(rune('a'+index)),
		BatchID:   batchID,
		ItemIndex: index,
		Status:    string(domain.ItemConfirmed),
		CreatedAt: createdAt,
	}
}

func TestSaveAndListByBatch(t *testing.T) {
	repo := NewReceiptRepo()
	ctx := context.Background()
	now := time.Now()

	if err := repo.SaveBatch(ctx, []*domain.Receipt{
		receipt("b1", 1, now),
		receipt("b1", 0, now),
		receipt("b2", 0, now),
	}); err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}

	got, err := repo.ListByBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("ListByBatch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 receipts, got %d", len(got))
	}
	if got[0].ItemIndex != 0 || got[1].ItemIndex != 1 {
		t.Error("Expected receipts ordered by item index")
	}
}

func TestSaveIsIdempotentPerItem(t *testing.T) {
	repo := NewReceiptRepo()
	ctx := context.Background()
	now := time.Now()

	first := receipt("b1", 0, now)
	first.Signature = "original"
	dup := receipt("b1", 0, now)
	dup.Signature = "duplicate"

	repo.Save(ctx, first)
	repo.Save(ctx, dup)

	got, _ := repo.ListByBatch(ctx, "b1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 receipt, got %d", len(got))
	}
	if got[0].Signature != "original" {
		t.Error("Expected first write to win")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := NewReceiptRepo()
	ctx := context.Background()
	now := time.Now()

	repo.Save(ctx, receipt("old", 0, now.Add(-48*time.Hour)))
	repo.Save(ctx, receipt("new", 0, now))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	if got, _ := repo.ListByBatch(ctx, "old"); len(got) != 0 {
		t.Error("Expected old receipts to be gone")
	}
	if got, _ := repo.ListByBatch(ctx, "new"); len(got) != 1 {
		t.Error("Expected recent receipts to survive")
	}
}

func TestListRecent(t *testing.T) {
	repo := NewReceiptRepo()
	ctx := context.Background()
	now := time.Now()

	repo.Save(ctx, receipt("b1", 0, now.Add(-2*time.Hour)))
	repo.Save(ctx, receipt("b2", 0, now.Add(-1*time.Hour)))
	repo.Save(ctx, receipt("b3", 0, now))

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 receipts, got %d", len(got))
	}
	if got[0].BatchID != "b3" || got[1].BatchID != "b2" {
		t.Errorf("Expected newest first, got %s, %s", got[0].BatchID, got[1].BatchID)
	}
}
