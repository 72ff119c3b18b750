package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_dashboard"

// Metrics holds the Prometheus collectors for the storm and rain feeds.
type Metrics struct {
	// Storm feed metrics.
	StormFetches       *prometheus.CounterVec // labels: outcome={success,empty,not_found,transport,malformed,superseded}
	StormFetchDuration prometheus.Histogram
	SnapshotStorms     prometheus.Gauge
	SkippedRecords     prometheus.Counter
	SnapshotPublishes  *prometheus.CounterVec // labels: outcome={success,error}

	// Rain feed metrics.
	RainFetches         *prometheus.CounterVec // labels: outcome={success,error}
	RainFeatures        *prometheus.GaugeVec   // labels: bucket={0,0.5,1}
	RainPipelineRunning prometheus.Gauge
	LayerApplications   *prometheus.CounterVec // labels: action={create,update,deferred}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StormFetches,
		m.StormFetchDuration,
		m.SnapshotStorms,
		m.SkippedRecords,
		m.SnapshotPublishes,
		m.RainFetches,
		m.RainFeatures,
		m.RainPipelineRunning,
		m.LayerApplications,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StormFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storm_fetches_total",
			Help:      "Date-keyed storm fetches by terminal outcome.",
		}, []string{"outcome"}),
		StormFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storm_fetch_duration_seconds",
			Help:      "Duration of a storm fetch from request to published state.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotStorms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_storms",
			Help:      "Number of storms in the current snapshot.",
		}),
		SkippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_records_total",
			Help:      "Storm feed entries skipped because they were not storm-shaped.",
		}),
		SnapshotPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publishes_total",
			Help:      "Snapshots published to Kafka by outcome.",
		}, []string{"outcome"}),
		RainFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rain_fetches_total",
			Help:      "Rain grid fetches by outcome.",
		}, []string{"outcome"}),
		RainFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rain_features",
			Help:      "Classified rain features in the latest grid by intensity bucket.",
		}, []string{"bucket"}),
		RainPipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rain_pipeline_running",
			Help:      "1 while the rain pipeline is active, 0 after shutdown.",
		}),
		LayerApplications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_applications_total",
			Help:      "Rain layer source mutations by action.",
		}, []string{"action"}),
	}
}
