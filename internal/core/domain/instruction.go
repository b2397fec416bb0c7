package domain

// AccountMeta describes one account an instruction touches.
type AccountMeta struct {
	PubKey   PublicKey
	Signer   bool
	Writable bool
}

// Instruction is a single program invocation. The sending pipeline treats
// it as opaque payload; callers construct instructions elsewhere.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Authorizer can sign a transaction message on behalf of an account that
// an instruction set requires beyond the fee payer.
type Authorizer interface {
	PublicKey() PublicKey
	SignMessage(msg []byte) (Signature, error)
}

// InstructionSet is a named, ordered group of instructions submitted
// together as one transaction, plus any set-specific authorizers.
// It is immutable once handed to the sender.
type InstructionSet struct {
	Name         string
	Authorizers  []Authorizer
	Instructions []Instruction
}

// IsEmpty reports whether the set carries no instructions.
func (s InstructionSet) IsEmpty() bool {
	return len(s.Instructions) == 0
}
