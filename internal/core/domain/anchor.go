package domain

// AnchorValiditySlots is how far the cluster's slot counter may advance past
// an anchor's baseline before transactions built against it are presumed
// expired and must be rebuilt under a fresh anchor.
const AnchorValiditySlots uint64 = 150

// Anchor is the recency anchor a transaction must reference to be accepted:
// a recent blockhash plus the slot the cluster reported when it was fetched.
// Slot and Blockhash always come from the same query. Anchors are immutable;
// staleness is handled by rebuilding the transaction, never by mutating the
// anchor.
type Anchor struct {
	Slot                 uint64
	Blockhash            string
	LastValidBlockHeight uint64
}

// StaleAt reports whether the anchor is past its validity window at the
// given slot.
func (a Anchor) StaleAt(slot uint64) bool {
	return slot >= a.Slot+AnchorValiditySlots
}
