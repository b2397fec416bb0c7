package engine

import (
	"errors"

	"github.com/vietddude/relayer/internal/core/domain"
)

// State is an alias for domain.ItemStatus for internal use.
type State = domain.ItemStatus

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid item state transition")

// ValidTransitions defines allowed per-item state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	domain.ItemPending:  {domain.ItemBuilding, domain.ItemAborted},
	domain.ItemBuilding: {domain.ItemSigned, domain.ItemFailed, domain.ItemAborted},
	domain.ItemSigned:   {domain.ItemSubmitting, domain.ItemFailed, domain.ItemAborted},
	domain.ItemSubmitting: {
		domain.ItemRetryScheduled,
		domain.ItemConfirmed,
		domain.ItemFailed,
		domain.ItemAborted,
	},
	domain.ItemRetryScheduled: {domain.ItemSubmitting, domain.ItemFailed, domain.ItemAborted},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}
