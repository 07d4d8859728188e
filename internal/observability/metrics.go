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
	// Polling metrics
	PollRunsTotal   *prometheus.CounterVec
	PollDuration    prometheus.Histogram
	TokensFetched   prometheus.Counter
	TokensUpserted  prometheus.Counter
	RecordsRejected *prometheus.CounterVec

	// Aggregation metrics
	AggregationRuns   prometheus.Counter
	WalletsAggregated prometheus.Counter

	// Simulation metrics
	SimulationsRun  prometheus.Counter
	TradesSimulated prometheus.Counter

	// Alert metrics
	AlertChecksTotal prometheus.Counter
	AlertsEmitted    *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "kol_sniper"
	}

	return &Metrics{
		PollRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "poll_runs_total",
			Help:      "Total number of poll runs by status",
		}, []string{"status"}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "poll_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		TokensFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_fetched_total",
			Help:      "Total number of tokens fetched from the activity feed",
		}),
		TokensUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_upserted_total",
			Help:      "Total number of tokens upserted into the activity store",
		}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_rejected_total",
			Help:      "Total number of records rejected at the validation boundary",
		}, []string{"reason"}),

		AggregationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "runs_total",
			Help:      "Total number of aggregation passes",
		}),
		WalletsAggregated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "wallets_aggregated_total",
			Help:      "Total number of wallet aggregates computed",
		}),

		SimulationsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "runs_total",
			Help:      "Total number of backtest simulations run",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),

		AlertChecksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "checks_total",
			Help:      "Total number of alert check runs",
		}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "emitted_total",
			Help:      "Total number of alerts emitted by priority",
		}, []string{"priority"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
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
var DefaultMetrics = NewMetrics("")

// RecordPollRun records one poll cycle.
func RecordPollRun(status string, durationSeconds float64) {
	DefaultMetrics.PollRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PollDuration.Observe(durationSeconds)
}

// RecordTokensFetched increments the tokens fetched counter.
func RecordTokensFetched(n int) {
	DefaultMetrics.TokensFetched.Add(float64(n))
}

// RecordTokensUpserted increments the tokens upserted counter.
func RecordTokensUpserted(n int) {
	DefaultMetrics.TokensUpserted.Add(float64(n))
}

// RecordRecordRejected records a boundary validation rejection.
func RecordRecordRejected(reason string) {
	DefaultMetrics.RecordsRejected.WithLabelValues(reason).Inc()
}

// RecordWalletsAggregated records one aggregation pass.
func RecordWalletsAggregated(wallets int) {
	DefaultMetrics.AggregationRuns.Inc()
	DefaultMetrics.WalletsAggregated.Add(float64(wallets))
}

// RecordSimulation records one simulation run and its ledger size.
func RecordSimulation(trades int) {
	DefaultMetrics.SimulationsRun.Inc()
	DefaultMetrics.TradesSimulated.Add(float64(trades))
}

// RecordAlertCheck increments the alert check counter.
func RecordAlertCheck() {
	DefaultMetrics.AlertChecksTotal.Inc()
}

// RecordAlertEmitted records an emitted alert by priority.
func RecordAlertEmitted(priority string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(priority).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
