package rpc

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"confirmation timeout", errors.New("confirmation timeout"), KindTransient},
		{"rate limited", errors.New("rate limited (429), retry after: 2"), KindTransient},
		{"too many requests", errors.New("Too Many Requests"), KindTransient},
		{"blockhash not found", errors.New("rpc error -32603: Blockhash not found"), KindTransient},
		{"block height exceeded", errors.New("block height exceeded"), KindTransient},
		{"node behind", errors.New("rpc error: Node is behind by 120 slots"), KindTransient},
		{"connection refused", errors.New("rpc call: dial tcp: connection refused"), KindTransient},
		{"preflight failure", errors.New("rpc error -32002: Transaction simulation failed"), KindFatal},
		{"invalid params", errors.New("rpc error -32602: invalid params"), KindFatal},
		{"insufficient funds", errors.New("Transfer: insufficient funds for fee"), KindFatal},
		{"bad signature", errors.New("signature verification failure"), KindFatal},
		{"unknown rejection", errors.New("some unrecognized rejection"), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestSubmitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Transient("confirmation timeout", inner)

	if !errors.Is(err, inner) {
		t.Error("Expected Unwrap to expose the inner error")
	}

	var serr *SubmitError
	wrapped := fmt.Errorf("submit index 2: %w", err)
	if !errors.As(wrapped, &serr) {
		t.Fatal("Expected errors.As to find the SubmitError")
	}
	if serr.Kind != KindTransient {
		t.Errorf("Expected transient kind, got %s", serr.Kind)
	}
}
