package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tdvu/marketsnap/internal/infra/storage"
)

const statusOK = "ok"

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// APIPinger reports whether the marketplace API is reachable.
type APIPinger interface {
	Ping(ctx context.Context) error
}

// QueueDepth reports how many protos are waiting in the requeue pipeline.
type QueueDepth interface {
	Count(ctx context.Context) (int, error)
}

// Monitor aggregates health status from the system's components.
type Monitor struct {
	collection string
	db         Pinger
	redis      Pinger // optional
	api        APIPinger
	snapshots  storage.SnapshotRepository
	queue      QueueDepth // optional
	maxSnapAge time.Duration
	lastCheck  time.Time
	lastReport Report
	mu         sync.RWMutex
}

// NewMonitor creates a new health monitor. maxSnapshotAge is the age beyond
// which the latest snapshot is considered stale; zero disables the check.
func NewMonitor(
	collection string,
	db Pinger,
	redis Pinger,
	api APIPinger,
	snapshots storage.SnapshotRepository,
	queue QueueDepth,
	maxSnapshotAge time.Duration,
) *Monitor {
	return &Monitor{
		collection: collection,
		db:         db,
		redis:      redis,
		api:        api,
		snapshots:  snapshots,
		queue:      queue,
		maxSnapAge: maxSnapshotAge,
	}
}

// CheckHealth performs a health check across all components.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering the backing services
	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport.Status != "" {
		return m.lastReport
	}

	report := Report{
		Status:     StatusHealthy,
		Collection: m.collection,
		Database:   statusOK,
		Exchange:   statusOK,
	}

	// 1. Database: the snapshot pipeline cannot run without it
	if err := m.db.Health(ctx); err != nil {
		report.Database = err.Error()
		report.Status = StatusCritical
	}

	// 2. Marketplace API
	if err := m.api.Ping(ctx); err != nil {
		report.Exchange = err.Error()
		report.Status = worst(report.Status, StatusDegraded)
	}

	// 3. Redis (cache and requeue only, not load-bearing)
	if m.redis != nil {
		report.Redis = statusOK
		if err := m.redis.Health(ctx); err != nil {
			report.Redis = err.Error()
			report.Status = worst(report.Status, StatusDegraded)
		}
	}

	// 4. Snapshot staleness
	if m.maxSnapAge > 0 && report.Database == statusOK {
		latest, err := m.snapshots.Latest(ctx, m.collection)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// No snapshot yet; fine on a fresh deployment
		case err != nil:
			report.Status = worst(report.Status, StatusDegraded)
		default:
			age := time.Since(latest.CreatedAt)
			report.SnapshotAge = age.Truncate(time.Second).String()
			if age > 3*m.maxSnapAge {
				report.Status = worst(report.Status, StatusCritical)
			} else if age > m.maxSnapAge {
				report.Status = worst(report.Status, StatusDegraded)
			}
		}
	}

	// 5. Requeue backlog
	if m.queue != nil {
		if count, err := m.queue.Count(ctx); err == nil {
			report.QueuedProtos = count
			if count > 50 {
				report.Status = worst(report.Status, StatusDegraded)
			}
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func worst(current, candidate SystemStatus) SystemStatus {
	if current == StatusCritical || candidate == StatusCritical {
		return StatusCritical
	}
	if current == StatusDegraded || candidate == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
