package signing

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vietddude/relayer/internal/core/domain"
)

// LocalIdentity signs with an in-process ed25519 keypair. It implements
// both Identity (fee payer / batch authority) and domain.Authorizer, so the
// same keypair can back a set-level authorizer in tests and tooling.
type LocalIdentity struct {
	pub  domain.PublicKey
	priv ed25519.PrivateKey
}

// Generate creates a new random identity.
func Generate() (*LocalIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	var k domain.PublicKey
	copy(k[:], pub)
	return &LocalIdentity{pub: k, priv: priv}, nil
}

// FromSeed builds an identity from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*LocalIdentity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: got %d, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var k domain.PublicKey
	copy(k[:], priv.Public().(ed25519.PublicKey))
	return &LocalIdentity{pub: k, priv: priv}, nil
}

// LoadKeypair reads the standard JSON keypair file format: an array of 64
// bytes, seed followed by public key.
func LoadKeypair(path string) (*LocalIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}

	// The file holds a JSON array of byte values, seed then public key.
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, fmt.Errorf("parse keypair file %s: %w", path, err)
	}
	if len(nums) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file %s: got %d bytes, want %d", path, len(nums), ed25519.PrivateKeySize)
	}
	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("keypair file %s: byte %d out of range", path, i)
		}
		raw[i] = byte(n)
	}

	id, err := FromSeed(raw[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	var declared domain.PublicKey
	copy(declared[:], raw[ed25519.SeedSize:])
	if declared != id.pub {
		return nil, fmt.Errorf("keypair file %s: public key does not match seed", path)
	}
	return id, nil
}

// SaveKeypair writes the identity in the standard JSON keypair format.
func (l *LocalIdentity) SaveKeypair(path string) error {
	nums := make([]int, 0, ed25519.PrivateKeySize)
	for _, b := range l.priv.Seed() {
		nums = append(nums, int(b))
	}
	for _, b := range l.pub {
		nums = append(nums, int(b))
	}
	data, err := json.Marshal(nums)
	if err != nil {
		return fmt.Errorf("encode keypair: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// PublicKey returns the identity's public key.
func (l *LocalIdentity) PublicKey() domain.PublicKey {
	return l.pub
}

// SignMessage signs an arbitrary message, satisfying domain.Authorizer.
func (l *LocalIdentity) SignMessage(msg []byte) (domain.Signature, error) {
	var sig domain.Signature
	copy(sig[:], ed25519.Sign(l.priv, msg))
	return sig, nil
}

// SignTransactions signs every transaction in the slice with the identity
// key in one pass.
func (l *LocalIdentity) SignTransactions(ctx context.Context, txs []*domain.Transaction) error {
	for i, tx := range txs {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDeclined, ctx.Err())
		default:
		}

		msg, err := tx.Message()
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		sig, err := l.SignMessage(msg)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		tx.AddSignature(l.pub, sig)
	}
	return nil
}
