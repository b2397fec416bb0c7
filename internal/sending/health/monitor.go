package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/rpc"
	"github.com/vietddude/relayer/internal/sending/metrics"
)

// QueueStats exposes submission queue depth. Optional.
type QueueStats interface {
	QueueDepth(ctx context.Context) (int64, error)
}

// StoragePinger exposes receipt journal availability. Optional.
type StoragePinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status: cluster reachability, queue depth,
// and receipt storage availability.
type Monitor struct {
	client     rpc.Client
	commitment domain.Commitment
	queue      QueueStats
	store      StoragePinger

	mu         sync.RWMutex
	lastCheck  time.Time
	lastReport Report
}

// NewMonitor creates a new health monitor. queue and store may be nil when
// the corresponding backend is not configured.
func NewMonitor(client rpc.Client, commitment domain.Commitment, queue QueueStats, store StoragePinger) *Monitor {
	return &Monitor{
		client:     client,
		commitment: commitment,
		queue:      queue,
		store:      store,
	}
}

// CheckHealth performs a health check, rate limited to avoid spamming the
// RPC endpoint.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && !m.lastCheck.IsZero() {
		return m.lastReport
	}

	report := Report{Status: StatusHealthy, StorageOK: true, CheckedAt: time.Now()}

	slot, err := m.client.CurrentSlot(ctx, m.commitment)
	if err != nil {
		report.Status = StatusCritical
		report.ClusterError = err.Error()
	} else {
		report.ClusterSlot = slot
	}

	if m.queue != nil {
		depth, err := m.queue.QueueDepth(ctx)
		if err != nil {
			report.QueueError = err.Error()
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		} else {
			report.QueueDepth = depth
			metrics.QueueDepth.Set(float64(depth))
		}
	}

	if m.store != nil {
		if err := m.store.Health(ctx); err != nil {
			report.StorageOK = false
			report.StorageError = err.Error()
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}

	m.lastCheck = report.CheckedAt
	m.lastReport = report
	return report
}

// Start runs periodic background checks until the context is canceled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckHealth(ctx)
		}
	}
}
