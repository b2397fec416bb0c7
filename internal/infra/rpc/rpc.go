package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/relayer/internal/core/domain"
)

// ErrUnavailable wraps failures where the RPC endpoint could not answer a
// query at all.
var ErrUnavailable = errors.New("rpc endpoint unavailable")

// Client is the narrow network surface the sending pipeline depends on.
// Implementations must not retry or fail over internally; the retry engine
// is the only retry logic in the system.
type Client interface {
	// LatestAnchor returns the cluster's current slot and a fresh recency
	// anchor, both taken from the same query. Wraps ErrUnavailable when the
	// query cannot complete.
	LatestAnchor(ctx context.Context, commitment domain.Commitment) (domain.Anchor, error)

	// CurrentSlot returns the cluster's current slot.
	CurrentSlot(ctx context.Context, commitment domain.Commitment) (uint64, error)

	// SubmitTransaction broadcasts a signed transaction and waits for it to
	// reach the configured commitment. Failures are *SubmitError values so
	// the caller can branch on Kind.
	SubmitTransaction(ctx context.Context, tx *domain.Transaction) (*SubmitResult, error)
}

// SubmitResult is a successful submission: the transaction signature and
// the slot at which it was accepted.
type SubmitResult struct {
	Signature string
	Slot      uint64
}

// Kind classifies a submission failure. This is the single branch point
// the retry engine keys off.
type Kind string

const (
	// KindTransient failures (confirmation timeout, throttling, expired
	// blockhash) may succeed on a later attempt.
	KindTransient Kind = "transient"
	// KindFatal failures (simulation rejection, malformed input) will not
	// improve with retries.
	KindFatal Kind = "fatal"
)

// SubmitError is a classified submission failure.
type SubmitError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s submit failure: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s submit failure: %s", e.Kind, e.Reason)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Transient builds a retryable SubmitError.
func Transient(reason string, err error) *SubmitError {
	return &SubmitError{Kind: KindTransient, Reason: reason, Err: err}
}

// Fatal builds a non-retryable SubmitError.
func Fatal(reason string, err error) *SubmitError {
	return &SubmitError{Kind: KindFatal, Reason: reason, Err: err}
}
