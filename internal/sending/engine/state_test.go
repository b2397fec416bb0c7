package engine

import (
	"testing"

	"github.com/vietddude/relayer/internal/core/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"signed to submitting", domain.ItemSigned, domain.ItemSubmitting, true},
		{"submitting to confirmed", domain.ItemSubmitting, domain.ItemConfirmed, true},
		{"submitting to retry", domain.ItemSubmitting, domain.ItemRetryScheduled, true},
		{"retry to submitting", domain.ItemRetryScheduled, domain.ItemSubmitting, true},
		{"retry to failed", domain.ItemRetryScheduled, domain.ItemFailed, true},
		{"signed to aborted", domain.ItemSigned, domain.ItemAborted, true},
		{"confirmed is terminal", domain.ItemConfirmed, domain.ItemSubmitting, false},
		{"failed is terminal", domain.ItemFailed, domain.ItemSubmitting, false},
		{"aborted is terminal", domain.ItemAborted, domain.ItemSubmitting, false},
		{"pending cannot submit directly", domain.ItemPending, domain.ItemSubmitting, false},
		{"confirmed cannot fail", domain.ItemConfirmed, domain.ItemFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatesHaveNoTargets(t *testing.T) {
	for _, s := range []State{domain.ItemConfirmed, domain.ItemFailed, domain.ItemAborted} {
		if targets, ok := ValidTransitions[s]; ok && len(targets) > 0 {
			t.Errorf("Terminal state %s should have no outgoing transitions, got %v", s, targets)
		}
	}
}
