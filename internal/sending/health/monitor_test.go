package health

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/infra/rpc"
)

type fakeClient struct {
	slot    uint64
	slotErr error
}

func (c *fakeClient) LatestAnchor(ctx context.Context, _ domain.Commitment) (domain.Anchor, error) {
	return domain.Anchor{}, nil
}

func (c *fakeClient) CurrentSlot(ctx context.Context, _ domain.Commitment) (uint64, error) {
	return c.slot, c.slotErr
}

func (c *fakeClient) SubmitTransaction(ctx context.Context, tx *domain.Transaction) (*rpc.SubmitResult, error) {
	return nil, rpc.Fatal("not implemented", nil)
}

type fakeQueue struct {
	depth int64
	err   error
}

func (q *fakeQueue) QueueDepth(ctx context.Context) (int64, error) {
	return q.depth, q.err
}

type fakeStore struct{ err error }

func (s *fakeStore) Health(ctx context.Context) error { return s.err }

func TestCheckHealthHealthy(t *testing.T) {
	m := NewMonitor(&fakeClient{slot: 1234}, domain.CommitmentConfirmed, &fakeQueue{depth: 2}, &fakeStore{})

	report := m.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", report.Status)
	}
	if report.ClusterSlot != 1234 {
		t.Errorf("Expected slot 1234, got %d", report.ClusterSlot)
	}
	if report.QueueDepth != 2 {
		t.Errorf("Expected queue depth 2, got %d", report.QueueDepth)
	}
}

func TestCheckHealthClusterDown(t *testing.T) {
	m := NewMonitor(&fakeClient{slotErr: errors.New("connection refused")}, domain.CommitmentConfirmed, nil, nil)

	report := m.CheckHealth(context.Background())
	if report.Status != StatusCritical {
		t.Errorf("Expected critical when the cluster is unreachable, got %s", report.Status)
	}
}

func TestCheckHealthStorageDegraded(t *testing.T) {
	m := NewMonitor(&fakeClient{slot: 1}, domain.CommitmentConfirmed, nil, &fakeStore{err: errors.New("down")})

	report := m.CheckHealth(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("Expected degraded when storage is down, got %s", report.Status)
	}
	if report.StorageOK {
		t.Error("Expected StorageOK=false")
	}
}

func TestCheckHealthRateLimited(t *testing.T) {
	client := &fakeClient{slot: 1}
	m := NewMonitor(client, domain.CommitmentConfirmed, nil, nil)

	first := m.CheckHealth(context.Background())
	client.slotErr = errors.New("down now")
	second := m.CheckHealth(context.Background())

	if second.Status != first.Status {
		t.Error("Expected cached report within the rate-limit window")
	}
}
