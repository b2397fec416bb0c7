package builder

import (
	"errors"
	"fmt"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ErrNoFeePayer is returned when a transaction is built without a fee payer.
var ErrNoFeePayer = errors.New("fee payer is required")

// Build turns one instruction set and one anchor into an unsigned
// transaction. Pure and deterministic: same inputs, same transaction.
// Empty sets are filtered out by the sender before building; passing one
// in is a caller bug and fails.
func Build(set domain.InstructionSet, anchor domain.Anchor, feePayer domain.PublicKey) (*domain.Transaction, error) {
	if set.IsEmpty() {
		return nil, fmt.Errorf("instruction set %q has no instructions", set.Name)
	}
	if feePayer.IsZero() {
		return nil, ErrNoFeePayer
	}

	instructions := make([]domain.Instruction, len(set.Instructions))
	copy(instructions, set.Instructions)

	return &domain.Transaction{
		FeePayer:     feePayer,
		Anchor:       anchor,
		Instructions: instructions,
	}, nil
}

// BuildAll builds one transaction per set against a single anchor,
// preserving order. Used for the initial batch and for rebuilt suffixes.
func BuildAll(sets []domain.InstructionSet, anchor domain.Anchor, feePayer domain.PublicKey) ([]*domain.Transaction, error) {
	txs := make([]*domain.Transaction, len(sets))
	for i, set := range sets {
		tx, err := Build(set, anchor, feePayer)
		if err != nil {
			return nil, fmt.Errorf("build index %d: %w", i, err)
		}
		txs[i] = tx
	}
	return txs, nil
}
