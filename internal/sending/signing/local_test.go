package signing

import (
	"context"
	"crypto/ed25519"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vietddude/relayer/internal/core/domain"
)

func testTx(payer domain.PublicKey) *domain.Transaction {
	var program domain.PublicKey
	program[0] = 7
	return &domain.Transaction{
		FeePayer:     payer,
		Anchor:       domain.Anchor{Slot: 1, Blockhash: "bh"},
		Instructions: []domain.Instruction{{ProgramID: program, Data: []byte{1}}},
	}
}

func TestSignTransactionsVerifies(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tx := testTx(id.PublicKey())
	if err := id.SignTransactions(context.Background(), []*domain.Transaction{tx}); err != nil {
		t.Fatalf("SignTransactions failed: %v", err)
	}

	if !tx.SignedBy(id.PublicKey()) {
		t.Fatal("Transaction missing identity signature")
	}

	msg, _ := tx.Message()
	pub := id.PublicKey()
	sig := tx.Signatures[0].Signature
	if !ed25519.Verify(pub[:], msg, sig[:]) {
		t.Error("Signature does not verify against the message")
	}
}

func TestKeypairFileRoundTrip(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id.json")
	if err := id.SaveKeypair(path); err != nil {
		t.Fatalf("SaveKeypair failed: %v", err)
	}

	loaded, err := LoadKeypair(path)
	if err != nil {
		t.Fatalf("LoadKeypair failed: %v", err)
	}
	if loaded.PublicKey() != id.PublicKey() {
		t.Errorf("Expected public key %s, got %s", id.PublicKey(), loaded.PublicKey())
	}
}

func TestLoadKeypairMissingFile(t *testing.T) {
	if _, err := LoadKeypair(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestFromSeedRejectsBadLength(t *testing.T) {
	if _, err := FromSeed(make([]byte, 16)); err == nil {
		t.Fatal("Expected error for short seed")
	}
}

func TestSignBatchAppliesSetAuthorizersFirst(t *testing.T) {
	identity, _ := Generate()
	authorizer, _ := Generate()

	sets := []domain.InstructionSet{
		{
			Name:         "with-auth",
			Authorizers:  []domain.Authorizer{authorizer},
			Instructions: []domain.Instruction{{ProgramID: domain.PublicKey{1}}},
		},
		{
			Name:         "plain",
			Instructions: []domain.Instruction{{ProgramID: domain.PublicKey{2}}},
		},
	}
	txs := []*domain.Transaction{
		testTx(identity.PublicKey()),
		testTx(identity.PublicKey()),
	}

	if err := SignBatch(context.Background(), identity, txs, sets); err != nil {
		t.Fatalf("SignBatch failed: %v", err)
	}

	if !txs[0].SignedBy(authorizer.PublicKey()) {
		t.Error("Set authorizer signature missing from first transaction")
	}
	if txs[1].SignedBy(authorizer.PublicKey()) {
		t.Error("Set authorizer leaked onto second transaction")
	}
	for i, tx := range txs {
		if !tx.SignedBy(identity.PublicKey()) {
			t.Errorf("Transaction %d missing identity signature", i)
		}
	}
	// Authorizer signs before the identity, additively.
	if txs[0].Signatures[0].PublicKey != authorizer.PublicKey() {
		t.Error("Expected the set authorizer to sign before the batch identity")
	}
}

func TestSignBatchLengthMismatch(t *testing.T) {
	identity, _ := Generate()
	err := SignBatch(context.Background(), identity, []*domain.Transaction{}, []domain.InstructionSet{{Name: "x"}})
	if err == nil {
		t.Fatal("Expected error for mismatched lengths")
	}
}

type decliningIdentity struct{ *LocalIdentity }

func (d *decliningIdentity) SignTransactions(ctx context.Context, txs []*domain.Transaction) error {
	return ErrDeclined
}

func TestSignBatchSurfacesDecline(t *testing.T) {
	local, _ := Generate()
	id := &decliningIdentity{LocalIdentity: local}

	sets := []domain.InstructionSet{{Name: "x", Instructions: []domain.Instruction{{}}}}
	txs := []*domain.Transaction{testTx(local.PublicKey())}

	err := SignBatch(context.Background(), id, txs, sets)
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("Expected ErrDeclined, got %v", err)
	}
}
