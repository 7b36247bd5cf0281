package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/storage"
)

type stubPinger struct{ err error }

func (s *stubPinger) Health(ctx context.Context) error { return s.err }

type stubAPI struct{ err error }

func (s *stubAPI) Ping(ctx context.Context) error { return s.err }

type stubQueue struct{ count int }

func (s *stubQueue) Count(ctx context.Context) (int, error) { return s.count, nil }

type stubSnapshots struct {
	latest *domain.Snapshot
	err    error
}

func (s *stubSnapshots) Save(ctx context.Context, snapshot *domain.Snapshot) error { return nil }
func (s *stubSnapshots) Latest(ctx context.Context, collection string) (*domain.Snapshot, error) {
	return s.latest, s.err
}
func (s *stubSnapshots) List(
	ctx context.Context,
	collection string,
	limit int,
) ([]*domain.Snapshot, error) {
	return nil, nil
}
func (s *stubSnapshots) DeleteOlderThan(
	ctx context.Context,
	collection string,
	threshold time.Time,
) error {
	return nil
}

func TestMonitor_Healthy(t *testing.T) {
	monitor := NewMonitor(
		"0xabc",
		&stubPinger{},
		&stubPinger{},
		&stubAPI{},
		&stubSnapshots{latest: &domain.Snapshot{CreatedAt: time.Now()}},
		&stubQueue{},
		time.Hour,
	)

	report := monitor.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
}

func TestMonitor_DatabaseDownIsCritical(t *testing.T) {
	monitor := NewMonitor(
		"0xabc",
		&stubPinger{err: errors.New("connection refused")},
		&stubPinger{},
		&stubAPI{},
		&stubSnapshots{},
		nil,
		time.Hour,
	)

	report := monitor.CheckHealth(context.Background())
	if report.Status != StatusCritical {
		t.Errorf("expected critical, got %s", report.Status)
	}
}

func TestMonitor_ExchangeDownIsDegraded(t *testing.T) {
	monitor := NewMonitor(
		"0xabc",
		&stubPinger{},
		nil,
		&stubAPI{err: errors.New("502 bad gateway")},
		&stubSnapshots{err: storage.ErrNotFound},
		nil,
		time.Hour,
	)

	report := monitor.CheckHealth(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
}

func TestMonitor_StaleSnapshot(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want SystemStatus
	}{
		{name: "fresh", age: 10 * time.Minute, want: StatusHealthy},
		{name: "stale", age: 90 * time.Minute, want: StatusDegraded},
		{name: "very stale", age: 5 * time.Hour, want: StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor(
				"0xabc",
				&stubPinger{},
				nil,
				&stubAPI{},
				&stubSnapshots{latest: &domain.Snapshot{CreatedAt: time.Now().Add(-tt.age)}},
				nil,
				time.Hour,
			)

			report := monitor.CheckHealth(context.Background())
			if report.Status != tt.want {
				t.Errorf("age %s: expected %s, got %s", tt.age, tt.want, report.Status)
			}
		})
	}
}

func TestMonitor_NoSnapshotYetIsHealthy(t *testing.T) {
	monitor := NewMonitor(
		"0xabc",
		&stubPinger{},
		nil,
		&stubAPI{},
		&stubSnapshots{err: storage.ErrNotFound},
		nil,
		time.Hour,
	)

	report := monitor.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy on fresh deployment, got %s", report.Status)
	}
}

func TestMonitor_QueueBacklog(t *testing.T) {
	monitor := NewMonitor(
		"0xabc",
		&stubPinger{},
		nil,
		&stubAPI{},
		&stubSnapshots{err: storage.ErrNotFound},
		&stubQueue{count: 75},
		time.Hour,
	)

	report := monitor.CheckHealth(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded on queue backlog, got %s", report.Status)
	}
	if report.QueuedProtos != 75 {
		t.Errorf("expected 75 queued protos, got %d", report.QueuedProtos)
	}
}
