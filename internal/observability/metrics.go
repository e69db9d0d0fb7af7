// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScansTotal   *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	PhaseTokens  *prometheus.GaugeVec
	LastScanTime prometheus.Gauge
	ScanRunning  prometheus.Gauge
	StageErrors  *prometheus.CounterVec

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Decision metrics
	SecurityVerdicts *prometheus.CounterVec
	RevivalScores    prometheus.Histogram
	AlertsSent       *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "revival_scanner"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan cycles by status",
		}, []string{"status"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		}),
		PhaseTokens: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "phase_tokens",
			Help:      "Surviving tokens per pipeline phase in the last scan",
		}, []string{"phase"}),
		LastScanTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_completed_timestamp",
			Help:      "Unix timestamp of the last completed scan",
		}),
		ScanRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "running",
			Help:      "1 while a scan cycle is in progress",
		}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "stage_errors_total",
			Help:      "Non-fatal per-token errors by stage",
		}, []string{"stage"}),

		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "External provider requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "External provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		SecurityVerdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "security",
			Name:      "verdicts_total",
			Help:      "Security filter verdicts by outcome",
		}, []string{"outcome"}),
		RevivalScores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "revival",
			Name:      "score",
			Help:      "Distribution of composite revival scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		AlertsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Alerts dispatched by priority",
		}, []string{"priority"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordProviderRequest records one provider round trip.
func RecordProviderRequest(provider, outcome string, seconds float64) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordScan records a finished scan cycle.
func RecordScan(status string, durationSeconds float64, finishedUnix int64) {
	DefaultMetrics.ScansTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
	if status == "completed" {
		DefaultMetrics.LastScanTime.Set(float64(finishedUnix))
	}
}

// SetScanRunning toggles the running gauge.
func SetScanRunning(running bool) {
	if running {
		DefaultMetrics.ScanRunning.Set(1)
		return
	}
	DefaultMetrics.ScanRunning.Set(0)
}

// SetPhaseTokens updates the survivor gauge for a phase.
func SetPhaseTokens(phase string, n int) {
	DefaultMetrics.PhaseTokens.WithLabelValues(phase).Set(float64(n))
}

// RecordStageError increments the per-stage error counter.
func RecordStageError(stage string) {
	DefaultMetrics.StageErrors.WithLabelValues(stage).Inc()
}

// RecordSecurityVerdict records a security verdict outcome.
func RecordSecurityVerdict(passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	DefaultMetrics.SecurityVerdicts.WithLabelValues(outcome).Inc()
}

// RecordRevivalScore observes a composite revival score.
func RecordRevivalScore(score float64) {
	DefaultMetrics.RevivalScores.Observe(score)
}

// RecordAlert increments the alerts counter for priority.
func RecordAlert(priority string) {
	DefaultMetrics.AlertsSent.WithLabelValues(priority).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
