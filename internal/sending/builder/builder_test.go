package builder

import (
	"errors"
	"testing"

	"github.com/vietddude/relayer/internal/core/domain"
)

func key(b byte) domain.PublicKey {
	var k domain.PublicKey
	k[0] = b
	return k
}

var anchor = domain.Anchor{Slot: 500, Blockhash: "bh"}

func TestBuild(t *testing.T) {
	set := domain.InstructionSet{
		Name: "transfer",
		Instructions: []domain.Instruction{
			{ProgramID: key(2), Data: []byte{9}},
		},
	}

	tx, err := Build(set, anchor, key(1))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if tx.FeePayer != key(1) {
		t.Errorf("Expected fee payer %s, got %s", key(1), tx.FeePayer)
	}
	if tx.Anchor != anchor {
		t.Errorf("Expected anchor %+v, got %+v", anchor, tx.Anchor)
	}
	if len(tx.Signatures) != 0 {
		t.Errorf("Expected unsigned transaction, got %d signatures", len(tx.Signatures))
	}
	if len(tx.Instructions) != 1 || tx.Instructions[0].ProgramID != key(2) {
		t.Error("Build did not carry over instruction content")
	}
}

func TestBuildDeterministic(t *testing.T) {
	set := domain.InstructionSet{
		Name:         "transfer",
		Instructions: []domain.Instruction{{ProgramID: key(2), Data: []byte{9}}},
	}

	a, _ := Build(set, anchor, key(1))
	b, _ := Build(set, anchor, key(1))
	am, _ := a.Message()
	bm, _ := b.Message()
	if string(am) != string(bm) {
		t.Error("Expected identical messages from identical inputs")
	}
}

func TestBuildEmptySet(t *testing.T) {
	_, err := Build(domain.InstructionSet{Name: "empty"}, anchor, key(1))
	if err == nil {
		t.Fatal("Expected error for empty instruction set")
	}
}

func TestBuildNoFeePayer(t *testing.T) {
	set := domain.InstructionSet{
		Name:         "x",
		Instructions: []domain.Instruction{{ProgramID: key(2)}},
	}
	_, err := Build(set, anchor, domain.PublicKey{})
	if !errors.Is(err, ErrNoFeePayer) {
		t.Fatalf("Expected ErrNoFeePayer, got %v", err)
	}
}

func TestBuildAllPreservesOrder(t *testing.T) {
	sets := []domain.InstructionSet{
		{Name: "a", Instructions: []domain.Instruction{{ProgramID: key(10)}}},
		{Name: "b", Instructions: []domain.Instruction{{ProgramID: key(11)}}},
	}

	txs, err := BuildAll(sets, anchor, key(1))
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Instructions[0].ProgramID != key(10) || txs[1].Instructions[0].ProgramID != key(11) {
		t.Error("BuildAll reordered transactions")
	}
}

func TestBuildAllFailsOnBadIndex(t *testing.T) {
	sets := []domain.InstructionSet{
		{Name: "a", Instructions: []domain.Instruction{{ProgramID: key(10)}}},
		{Name: "empty"},
	}
	if _, err := BuildAll(sets, anchor, key(1)); err == nil {
		t.Fatal("Expected error for empty set at index 1")
	}
}
