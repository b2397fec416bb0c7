package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/sending/builder"
	"github.com/vietddude/relayer/internal/sending/metrics"
	"github.com/vietddude/relayer/internal/sending/signing"
)

// ErrMaxSigningAttempts is the terminal error for an item whose transient
// failures exhausted the configured attempt budget.
var ErrMaxSigningAttempts = errors.New("max signing attempts reached")

// Failure kinds recorded on item outcomes.
const (
	FailureFatal       = "fatal"
	FailureMaxAttempts = "max_signing_attempts"
	FailureNetwork     = "network"
)

// Config holds retry engine settings. Immutable for the duration of a run.
type Config struct {
	// MaxSigningAttempts bounds total submission attempts per item.
	MaxSigningAttempts int
	// AbortOnFailure stops the whole batch after the first item failure.
	AbortOnFailure bool
	// Commitment is the confirmation depth for slot queries.
	Commitment domain.Commitment
	// SubmitDelay is enforced before every submission attempt, retries
	// included, to give the cluster time to settle prior state.
	SubmitDelay time.Duration
	// DriftThreshold is the slot advance past the anchor baseline beyond
	// which the anchor is treated as stale.
	DriftThreshold uint64
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		MaxSigningAttempts: 3,
		AbortOnFailure:     true,
		Commitment:         domain.DefaultCommitment,
		SubmitDelay:        500 * time.Millisecond,
		DriftThreshold:     domain.AnchorValiditySlots,
	}
}

// Observers are optional run callbacks. Nil fields are no-ops.
type Observers struct {
	// Progress fires after each confirmed item, in index order.
	Progress func(index int)
	// ReSign fires when an item is rebuilt and re-signed before a retry.
	ReSign func(attempt, index int)
	// Failure fires when an item reaches a terminal failure, with the
	// instruction set at the failing index.
	Failure func(err error, index, successful int, set domain.InstructionSet)
}

// Engine drives the per-item send loop: bounded retry on transient
// failures, drift detection, suffix rebuild-and-resign, and the abort
// policy. One logical task owns the whole batch; items are submitted
// strictly in order and never concurrently.
type Engine struct {
	cfg      Config
	client   rpc.Client
	identity signing.Identity
	obs      Observers
	log      *slog.Logger
}

// New creates a retry engine.
func New(cfg Config, client rpc.Client, identity signing.Identity, obs Observers, log *slog.Logger) *Engine {
	if cfg.MaxSigningAttempts < 1 {
		cfg.MaxSigningAttempts = 1
	}
	if cfg.DriftThreshold == 0 {
		cfg.DriftThreshold = domain.AnchorValiditySlots
	}
	if !cfg.Commitment.IsValid() {
		cfg.Commitment = domain.DefaultCommitment
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		client:   client,
		identity: identity,
		obs:      obs,
		log:      log.With("component", "engine"),
	}
}

// run is the mutable state of one batch: the live transaction per index,
// the anchor baseline, and the outcome records. Owned exclusively by the
// engine while Run executes.
type run struct {
	sets       []domain.InstructionSet
	txs        []*domain.Transaction
	baseline   uint64
	successful int
	items      []domain.ItemOutcome
}

// Run processes a signed batch to completion. txs must line up with sets
// index for index and already be signed against an anchor fetched at
// baselineSlot. Outcomes are observed strictly in index order.
func (e *Engine) Run(ctx context.Context, sets []domain.InstructionSet, txs []*domain.Transaction, baselineSlot uint64) *domain.BatchResult {
	r := &run{
		sets:     sets,
		txs:      txs,
		baseline: baselineSlot,
		items:    make([]domain.ItemOutcome, len(sets)),
	}
	for i := range r.items {
		r.items[i] = domain.ItemOutcome{
			Index:   i,
			SetName: sets[i].Name,
			Status:  domain.ItemSigned,
		}
	}

	// A failed suffix re-anchor after item i confirms is carried into
	// index i+1: that is the first item whose transaction can no longer
	// be trusted, while i itself stays confirmed.
	var carried error

	for i := range r.sets {
		if ctx.Err() != nil {
			e.abortFrom(r, i)
			break
		}

		var terminal error
		kind := FailureNetwork

		if carried != nil {
			terminal, carried = carried, nil
		} else {
			res := e.sendItem(ctx, r, i)
			if res.canceled {
				e.abortFrom(r, i)
				break
			}
			terminal = res.err
			kind = res.kind
			carried = res.carry
		}

		if terminal == nil {
			continue
		}

		e.failItem(r, i, terminal, kind)
		if e.cfg.AbortOnFailure {
			e.abortFrom(r, i+1)
			break
		}
	}

	return &domain.BatchResult{Successful: r.successful, Items: r.items}
}

type itemResult struct {
	err      error // terminal failure for this index, nil on success
	kind     string
	carry    error // post-acceptance re-anchor failure, charged to the next index
	canceled bool
}

// sendItem drives one index to a terminal outcome.
func (e *Engine) sendItem(ctx context.Context, r *run, i int) itemResult {
	attempts := 0

	for {
		if err := e.pause(ctx); err != nil {
			return itemResult{canceled: true}
		}

		attempts++
		r.items[i].Attempts = attempts
		e.transition(r, i, domain.ItemSubmitting)
		metrics.SubmitAttempts.Inc()

		start := time.Now()
		res, err := e.client.SubmitTransaction(ctx, r.txs[i])
		metrics.SubmitLatency.Observe(time.Since(start).Seconds())

		if err == nil {
			return e.acceptItem(ctx, r, i, res)
		}
		if ctx.Err() != nil {
			return itemResult{canceled: true}
		}

		kind := rpc.KindFatal
		var serr *rpc.SubmitError
		if errors.As(err, &serr) {
			kind = serr.Kind
		}

		if kind == rpc.KindFatal {
			e.log.Error("Fatal submit failure", "index", i, "attempt", attempts, "error", err)
			return itemResult{err: err, kind: FailureFatal}
		}

		// Transient: stop when the attempt budget is spent.
		if attempts >= e.cfg.MaxSigningAttempts {
			return itemResult{
				err:  fmt.Errorf("index %d: %w after %d attempts: %v", i, ErrMaxSigningAttempts, attempts, err),
				kind: FailureMaxAttempts,
			}
		}

		// Before retrying, check whether the anchor drifted out of its
		// validity window while we were failing.
		slot, slotErr := e.client.CurrentSlot(ctx, e.cfg.Commitment)
		if slotErr != nil {
			if ctx.Err() != nil {
				return itemResult{canceled: true}
			}
			return itemResult{err: fmt.Errorf("index %d slot check: %w", i, slotErr), kind: FailureNetwork}
		}

		if slot >= r.baseline+e.cfg.DriftThreshold {
			// The failing index itself has not succeeded yet, so the
			// rebuild starts at i, not i+1.
			if rerr := e.reanchorForRetry(ctx, r, i); rerr != nil {
				if ctx.Err() != nil {
					return itemResult{canceled: true}
				}
				return itemResult{err: rerr, kind: FailureNetwork}
			}
			if e.obs.ReSign != nil {
				e.obs.ReSign(attempts, i)
			}
		}

		e.transition(r, i, domain.ItemRetryScheduled)
		e.log.Warn("Transient submit failure, retrying",
			"index", i, "attempt", attempts, "slot", slot, "baseline", r.baseline, "error", err)
	}
}

// acceptItem records a confirmed item and re-anchors the unsent suffix if
// acceptance landed past the drift threshold.
func (e *Engine) acceptItem(ctx context.Context, r *run, i int, res *rpc.SubmitResult) itemResult {
	e.transition(r, i, domain.ItemConfirmed)
	r.items[i].Signature = res.Signature
	r.items[i].Slot = res.Slot
	r.successful++
	metrics.ItemsTotal.WithLabelValues(string(domain.ItemConfirmed)).Inc()

	if e.obs.Progress != nil {
		e.obs.Progress(i)
	}
	e.log.Info("Item confirmed", "index", i, "set", r.sets[i].Name, "signature", res.Signature, "slot", res.Slot)

	if res.Slot >= r.baseline+e.cfg.DriftThreshold {
		if cerr := e.reanchorAfterAcceptance(ctx, r, i); cerr != nil {
			if ctx.Err() != nil {
				return itemResult{canceled: true}
			}
			return itemResult{carry: cerr}
		}
	}
	return itemResult{}
}

// reanchorAfterAcceptance refreshes the anchor after item i confirmed past
// the drift threshold and rebuilds the unsent suffix starting at i+1. With
// no unsent items left the fetch is skipped entirely.
func (e *Engine) reanchorAfterAcceptance(ctx context.Context, r *run, i int) error {
	if i+1 >= len(r.sets) {
		return nil
	}

	anchor, err := e.client.LatestAnchor(ctx, e.cfg.Commitment)
	if err != nil {
		return fmt.Errorf("re-anchor after acceptance of index %d: %w", i, err)
	}
	if err := e.rebuildSuffix(ctx, r, i+1, anchor); err != nil {
		return err
	}
	r.baseline = anchor.Slot
	metrics.AnchorRefreshes.WithLabelValues("acceptance").Inc()
	e.log.Info("Re-anchored after acceptance", "confirmedIndex", i, "rebuildFrom", i+1, "newBaseline", anchor.Slot)
	return nil
}

// reanchorForRetry refreshes the anchor before retrying index i and
// rebuilds the suffix starting at i itself, since i has not succeeded yet.
func (e *Engine) reanchorForRetry(ctx context.Context, r *run, i int) error {
	anchor, err := e.client.LatestAnchor(ctx, e.cfg.Commitment)
	if err != nil {
		return fmt.Errorf("re-anchor for retry of index %d: %w", i, err)
	}
	if err := e.rebuildSuffix(ctx, r, i, anchor); err != nil {
		return err
	}
	r.baseline = anchor.Slot
	metrics.AnchorRefreshes.WithLabelValues("retry").Inc()
	e.log.Info("Re-anchored for retry", "index", i, "newBaseline", anchor.Slot)
	return nil
}

// rebuildSuffix rebuilds and batch-signs every transaction from index
// `from` onward against a fresh anchor. Earlier, already-confirmed
// transactions are never touched.
func (e *Engine) rebuildSuffix(ctx context.Context, r *run, from int, anchor domain.Anchor) error {
	feePayer := e.identity.PublicKey()
	rebuilt, err := builder.BuildAll(r.sets[from:], anchor, feePayer)
	if err != nil {
		return fmt.Errorf("rebuild suffix from index %d: %w", from, err)
	}
	if err := signing.SignBatch(ctx, e.identity, rebuilt, r.sets[from:]); err != nil {
		return fmt.Errorf("re-sign suffix from index %d: %w", from, err)
	}

	copy(r.txs[from:], rebuilt)
	metrics.ReSignedTransactions.Add(float64(len(rebuilt)))
	return nil
}

// pause enforces the fixed pre-submission delay.
func (e *Engine) pause(ctx context.Context) error {
	if e.cfg.SubmitDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.SubmitDelay):
		return nil
	}
}

func (e *Engine) failItem(r *run, i int, err error, kind string) {
	e.transition(r, i, domain.ItemFailed)
	r.items[i].Err = err
	r.items[i].FailureKind = kind
	metrics.ItemsTotal.WithLabelValues(string(domain.ItemFailed)).Inc()

	e.log.Error("Item failed", "index", i, "set", r.sets[i].Name, "kind", kind, "successful", r.successful, "error", err)
	if e.obs.Failure != nil {
		e.obs.Failure(err, i, r.successful, r.sets[i])
	}
}

// abortFrom marks every non-terminal item from index `from` onward aborted.
// Cancellation and abort-on-failure both land here; neither fires the
// failure callback for the items they sweep away.
func (e *Engine) abortFrom(r *run, from int) {
	for j := from; j < len(r.items); j++ {
		if r.items[j].Status.IsTerminal() {
			continue
		}
		e.transition(r, j, domain.ItemAborted)
		metrics.ItemsTotal.WithLabelValues(string(domain.ItemAborted)).Inc()
	}
}

func (e *Engine) transition(r *run, i int, to State) {
	from := r.items[i].Status
	if !CanTransition(from, to) {
		e.log.Warn("Invalid item state transition", "index", i, "from", from, "to", to)
	}
	r.items[i].Status = to
}
