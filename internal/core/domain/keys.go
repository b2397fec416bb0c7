package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKey is a 32-byte ed25519 public key.
type PublicKey [32]byte

// ParsePublicKey decodes a base58-encoded public key.
func ParsePublicKey(s string) (PublicKey, error) {
	var k PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return k, fmt.Errorf("invalid public key %q: %w", s, err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("invalid public key length: got %d bytes, want %d", len(raw), len(k))
	}
	copy(k[:], raw)
	return k, nil
}

// String returns the base58 form.
func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// IsZero reports whether the key is unset.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// Signature is a 64-byte ed25519 signature.
type Signature [64]byte

// String returns the base58 form.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether the signature is unset.
func (s Signature) IsZero() bool {
	return s == Signature{}
}
