package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbchat_turns_total",
			Help: "Total number of conversation turns by outcome.",
		},
		[]string{"status"},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbchat_stage_duration_seconds",
			Help:    "Pipeline stage latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	sqlExecutionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dbchat_sql_execution_errors_total",
			Help: "Total number of generated queries rejected by the database engine.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbchat_active_sessions",
			Help: "Current number of open chat sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		turnsTotal,
		stageDurationSeconds,
		sqlExecutionErrorsTotal,
		activeSessions,
	)
}

func ObserveTurn(status string) {
	turnsTotal.WithLabelValues(status).Inc()
}

func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementSQLExecutionError() {
	sqlExecutionErrorsTotal.Inc()
}

func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}
