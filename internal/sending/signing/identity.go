package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ErrDeclined wraps failures where the holder of signing authority rejected
// the batch or could not be reached.
var ErrDeclined = errors.New("signing authority declined")

// Identity is the batch signing authority. It authorizes a whole slice of
// pending transactions in a single call.
type Identity interface {
	PublicKey() domain.PublicKey
	SignTransactions(ctx context.Context, txs []*domain.Transaction) error
}

// SignBatch signs a slice of built transactions: each set's own authorizers
// are applied to its transaction first, additively, then the identity signs
// the whole slice in one call. Used for the initial batch and for rebuilt
// suffixes; txs and sets must line up index for index.
func SignBatch(ctx context.Context, identity Identity, txs []*domain.Transaction, sets []domain.InstructionSet) error {
	if len(txs) != len(sets) {
		return fmt.Errorf("transaction/set count mismatch: %d vs %d", len(txs), len(sets))
	}

	for i, tx := range txs {
		for _, auth := range sets[i].Authorizers {
			msg, err := tx.Message()
			if err != nil {
				return fmt.Errorf("set %q: %w", sets[i].Name, err)
			}
			sig, err := auth.SignMessage(msg)
			if err != nil {
				return fmt.Errorf("set %q authorizer %s: %w", sets[i].Name, auth.PublicKey(), err)
			}
			tx.AddSignature(auth.PublicKey(), sig)
		}
	}

	if err := identity.SignTransactions(ctx, txs); err != nil {
		return fmt.Errorf("batch signing: %w", err)
	}
	return nil
}
