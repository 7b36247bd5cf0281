package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks marketplace API requests per endpoint
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_api_requests_total",
			Help: "Total number of marketplace API requests",
		},
		[]string{"endpoint"},
	)

	// APIErrorsTotal tracks marketplace API errors per endpoint
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_api_errors_total",
			Help: "Total number of marketplace API errors",
		},
		[]string{"endpoint", "error_type"},
	)

	// APILatency tracks marketplace API call latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketsnap_api_latency_seconds",
			Help:    "Marketplace API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// JobAttemptsTotal tracks job attempts per job kind
	JobAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_job_attempts_total",
			Help: "Total number of job attempts",
		},
		[]string{"job"},
	)

	// JobsExhaustedTotal tracks jobs that failed after exhausting retries
	JobsExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_jobs_exhausted_total",
			Help: "Total number of jobs that exhausted their retries",
		},
		[]string{"job"},
	)

	// ProtosPriced tracks protos priced in the latest snapshot pass
	ProtosPriced = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketsnap_protos_priced",
			Help: "Protos successfully priced in the latest snapshot pass",
		},
		[]string{"collection"},
	)

	// ProtosFailed tracks protos that could not be priced in the latest pass
	ProtosFailed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketsnap_protos_failed",
			Help: "Protos that could not be priced in the latest snapshot pass",
		},
		[]string{"collection"},
	)

	// SnapshotTotalValue tracks the total valuation of the latest snapshot
	SnapshotTotalValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketsnap_snapshot_total_value",
			Help: "Total collection valuation from the latest snapshot",
		},
		[]string{"collection", "currency"},
	)

	// SnapshotsTotal tracks snapshots persisted per collection
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_snapshots_total",
			Help: "Total number of snapshots persisted",
		},
		[]string{"collection"},
	)

	// RecordsSynced tracks records written by the sync crawls
	RecordsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketsnap_records_synced_total",
			Help: "Total number of records written by sync crawls",
		},
		[]string{"collection", "kind"},
	)

	// RetryQueueDepth tracks protos waiting in the retry queue
	RetryQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketsnap_retry_queue_depth",
			Help: "Number of protos waiting in the retry queue",
		},
		[]string{"collection"},
	)

	// DBConnectionPoolUsage tracks database connection pool utilisation
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketsnap_db_pool_usage_percent",
			Help: "Database connection pool utilisation percentage",
		},
	)
)
