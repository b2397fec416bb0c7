package health

import "time"

// Status represents service health.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report is the detailed health snapshot.
type Report struct {
	Status       Status    `json:"status"`
	ClusterSlot  uint64    `json:"cluster_slot"`
	ClusterError string    `json:"cluster_error,omitempty"`
	QueueDepth   int64     `json:"queue_depth"`
	QueueError   string    `json:"queue_error,omitempty"`
	StorageOK    bool      `json:"storage_ok"`
	StorageError string    `json:"storage_error,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}
