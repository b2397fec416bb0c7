package domain

// Commitment is the confirmation depth a caller waits for.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// DefaultCommitment is used when a caller does not specify one.
const DefaultCommitment = CommitmentConfirmed

// IsValid reports whether c is a known commitment level.
func (c Commitment) IsValid() bool {
	switch c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return true
	}
	return false
}

// AtLeast reports whether c is at least as deep as other.
func (c Commitment) AtLeast(other Commitment) bool {
	return rank(c) >= rank(other)
}

func rank(c Commitment) int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}
