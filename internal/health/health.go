// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report for the tracked collection.
type Report struct {
	Status       SystemStatus `json:"status"`
	Collection   string       `json:"collection"`
	Database     string       `json:"database"`
	Redis        string       `json:"redis,omitempty"`
	Exchange     string       `json:"exchange"`
	SnapshotAge  string       `json:"snapshot_age,omitempty"`
	QueuedProtos int          `json:"queued_protos"`
}
