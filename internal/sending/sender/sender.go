package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/sending/builder"
	"github.com/vietddude/relayer/internal/sending/engine"
	"github.com/vietddude/relayer/internal/sending/metrics"
	"github.com/vietddude/relayer/internal/sending/signing"
)

var (
	// ErrNoSigningIdentity is returned before any network call when the
	// sender has no identity capable of signing.
	ErrNoSigningIdentity = errors.New("no signing identity")
	// ErrEmptyBatch is returned before any network call when no non-empty
	// instruction set was supplied.
	ErrEmptyBatch = errors.New("batch contains no instructions")
	// ErrAlreadyRun is returned on a second Send call; a Sender runs one
	// batch per instance.
	ErrAlreadyRun = errors.New("sender has already run")
)

// Config holds a batch run's settings. It is a plain value constructed
// once before Send; there are no setters to mutate after the run starts.
type Config struct {
	MaxSigningAttempts int
	AbortOnFailure     bool
	Commitment         domain.Commitment
	SubmitDelay        time.Duration
	DriftThreshold     uint64
	Observers          engine.Observers
	Logger             *slog.Logger
}

// DefaultConfig returns the default sender settings.
func DefaultConfig() Config {
	return Config{
		MaxSigningAttempts: 3,
		AbortOnFailure:     true,
		Commitment:         domain.DefaultCommitment,
		SubmitDelay:        500 * time.Millisecond,
		DriftThreshold:     domain.AnchorValiditySlots,
	}
}

// Sender is the entry point for submitting one ordered batch of
// instruction sets as individual transactions. It validates preconditions,
// fetches the initial anchor, builds and batch-signs all transactions, and
// hands the signed batch to the retry engine.
type Sender struct {
	cfg      Config
	client   rpc.Client
	identity signing.Identity
	log      *slog.Logger
	ran      atomic.Bool
}

// New creates a sender for a single batch run.
func New(client rpc.Client, identity signing.Identity, cfg Config) *Sender {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Sender{
		cfg:      cfg,
		client:   client,
		identity: identity,
		log:      log.With("component", "sender"),
	}
}

// Send runs the batch to a terminal state for every index (or until an
// early abort). Errors are returned only for failures before any
// submission attempt; per-item outcomes live in the result.
func (s *Sender) Send(ctx context.Context, sets []domain.InstructionSet) (*domain.BatchResult, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	if s.identity == nil {
		return nil, ErrNoSigningIdentity
	}

	nonEmpty := make([]domain.InstructionSet, 0, len(sets))
	for _, set := range sets {
		if set.IsEmpty() {
			s.log.Debug("Dropping empty instruction set", "set", set.Name)
			continue
		}
		nonEmpty = append(nonEmpty, set)
	}
	if len(nonEmpty) == 0 {
		return nil, ErrEmptyBatch
	}

	metrics.BatchesTotal.Inc()

	anchor, err := s.client.LatestAnchor(ctx, s.cfg.Commitment)
	if err != nil {
		return nil, fmt.Errorf("initial anchor: %w", err)
	}
	s.log.Info("Batch anchored", "items", len(nonEmpty), "baseline", anchor.Slot, "blockhash", anchor.Blockhash)

	txs, err := builder.BuildAll(nonEmpty, anchor, s.identity.PublicKey())
	if err != nil {
		return nil, err
	}
	if err := signing.SignBatch(ctx, s.identity, txs, nonEmpty); err != nil {
		return nil, err
	}

	eng := engine.New(engine.Config{
		MaxSigningAttempts: s.cfg.MaxSigningAttempts,
		AbortOnFailure:     s.cfg.AbortOnFailure,
		Commitment:         s.cfg.Commitment,
		SubmitDelay:        s.cfg.SubmitDelay,
		DriftThreshold:     s.cfg.DriftThreshold,
	}, s.client, s.identity, s.cfg.Observers, s.log)

	result := eng.Run(ctx, nonEmpty, txs, anchor.Slot)
	s.log.Info("Batch finished", "items", len(result.Items), "successful", result.Successful, "failed", result.Failed())
	return result, nil
}
