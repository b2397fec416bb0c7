package domain

import (
	"encoding/base64"
	"fmt"

	"github.com/near/borsh-go"
)

// SignatureEntry is one authorization attached to a transaction.
type SignatureEntry struct {
	PublicKey PublicKey
	Signature Signature
}

// Transaction is one instruction set bound to one anchor. It is immutable
// after signing; re-signing under a new anchor is done by building a new
// Transaction that replaces the old one at the same batch index.
type Transaction struct {
	FeePayer     PublicKey
	Anchor       Anchor
	Instructions []Instruction
	Signatures   []SignatureEntry
}

type accountWire struct {
	PubKey   [32]byte
	Signer   bool
	Writable bool
}

type instructionWire struct {
	ProgramID [32]byte
	Accounts  []accountWire
	Data      []byte
}

type messageWire struct {
	FeePayer     [32]byte
	Blockhash    string
	Instructions []instructionWire
}

type transactionWire struct {
	Signatures [][64]byte
	Message    messageWire
}

func (t *Transaction) messageWire() messageWire {
	ins := make([]instructionWire, len(t.Instructions))
	for i, in := range t.Instructions {
		accs := make([]accountWire, len(in.Accounts))
		for j, a := range in.Accounts {
			accs[j] = accountWire{PubKey: a.PubKey, Signer: a.Signer, Writable: a.Writable}
		}
		ins[i] = instructionWire{ProgramID: in.ProgramID, Accounts: accs, Data: in.Data}
	}
	return messageWire{
		FeePayer:     t.FeePayer,
		Blockhash:    t.Anchor.Blockhash,
		Instructions: ins,
	}
}

// Message returns the deterministic byte encoding that gets signed.
func (t *Transaction) Message() ([]byte, error) {
	data, err := borsh.Serialize(t.messageWire())
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// AddSignature attaches a signature, replacing any prior entry for the
// same key.
func (t *Transaction) AddSignature(key PublicKey, sig Signature) {
	for i := range t.Signatures {
		if t.Signatures[i].PublicKey == key {
			t.Signatures[i].Signature = sig
			return
		}
	}
	t.Signatures = append(t.Signatures, SignatureEntry{PublicKey: key, Signature: sig})
}

// SignedBy reports whether the transaction carries a signature for key.
func (t *Transaction) SignedBy(key PublicKey) bool {
	for _, e := range t.Signatures {
		if e.PublicKey == key {
			return true
		}
	}
	return false
}

// ID returns the fee payer's signature in base58, the transaction's
// identity on the wire. Empty until the fee payer has signed.
func (t *Transaction) ID() string {
	for _, e := range t.Signatures {
		if e.PublicKey == t.FeePayer {
			return e.Signature.String()
		}
	}
	return ""
}

// Encode returns the base64 wire form, signatures included.
func (t *Transaction) Encode() (string, error) {
	sigs := make([][64]byte, len(t.Signatures))
	for i, e := range t.Signatures {
		sigs[i] = e.Signature
	}
	data, err := borsh.Serialize(transactionWire{Signatures: sigs, Message: t.messageWire()})
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
