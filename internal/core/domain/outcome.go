package domain

// ItemStatus tracks one batch item through the send loop.
type ItemStatus string

const (
	ItemPending        ItemStatus = "pending"
	ItemBuilding       ItemStatus = "building"
	ItemSigned         ItemStatus = "signed"
	ItemSubmitting     ItemStatus = "submitting"
	ItemRetryScheduled ItemStatus = "retry_scheduled"
	ItemConfirmed      ItemStatus = "confirmed"
	ItemFailed         ItemStatus = "failed"
	ItemAborted        ItemStatus = "aborted"
)

// IsTerminal reports whether the item will see no further transitions.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case ItemConfirmed, ItemFailed, ItemAborted:
		return true
	}
	return false
}

// ItemOutcome is the per-index record of a batch run.
type ItemOutcome struct {
	Index       int
	SetName     string
	Status      ItemStatus
	Attempts    int
	Signature   string
	Slot        uint64
	FailureKind string
	Err         error
}

// BatchResult is what a run of the sender produces: one outcome per
// non-empty instruction set, in original order.
type BatchResult struct {
	BatchID    string
	Successful int
	Items      []ItemOutcome
}

// Failed counts items that reached a failed status.
func (r *BatchResult) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Status == ItemFailed {
			n++
		}
	}
	return n
}
