package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal tracks recovery attempts per strategy and outcome
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_attempts_total",
			Help: "Total number of recovery attempts",
		},
		[]string{"strategy", "result"},
	)

	// CascadesTotal tracks completed cascades per outcome
	CascadesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_cascades_total",
			Help: "Total number of completed recovery cascades",
		},
		[]string{"result"},
	)

	// EscalationsTotal tracks cascades that exhausted every strategy
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_escalations_total",
			Help: "Total number of cascades escalated to a human",
		},
	)

	// AttemptDuration tracks the duration of individual attempts
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remedy_attempt_duration_seconds",
			Help:    "Recovery attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	// ErrorsClassified tracks classified errors per category and type
	ErrorsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remedy_errors_classified_total",
			Help: "Total number of errors classified",
		},
		[]string{"category", "type"},
	)

	// RollbacksTotal tracks successful checkpoint rollbacks
	RollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_rollbacks_total",
			Help: "Total number of checkpoint rollbacks performed",
		},
	)

	// DBConnectionPoolUsage tracks audit store connection pool usage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remedy_db_connection_pool_usage_percent",
			Help: "Audit store connection pool usage percentage",
		},
	)
)
