package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// sync pipeline.
type Metrics struct {
	ResourcesDiscovered prometheus.Counter
	Fetches             *prometheus.CounterVec // labels: kind={listing,archive,stations,forecast}, outcome={success,error}
	RecordsParsed       *prometheus.CounterVec // labels: kind={station,measurement,forecast}
	ParseErrors         prometheus.Counter
	DedupDropped        prometheus.Counter
	SyncDuration        prometheus.Histogram
	PipelineRunning     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ResourcesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dwd_etl",
			Name:      "resources_discovered_total",
			Help:      "Total resources discovered in directory listings.",
		}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dwd_etl",
			Name:      "fetches_total",
			Help:      "Remote fetches by resource kind and outcome.",
		}, []string{"kind", "outcome"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dwd_etl",
			Name:      "records_parsed_total",
			Help:      "Normalized records produced by the parsers, by kind.",
		}, []string{"kind"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dwd_etl",
			Name:      "parse_errors_total",
			Help:      "Structural parse failures across all payload kinds.",
		}),
		DedupDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dwd_etl",
			Name:      "dedup_dropped_total",
			Help:      "Records discarded by deduplication and window filtering.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dwd_etl",
			Name:      "sync_duration_seconds",
			Help:      "Duration of a complete gather-fetch-parse-persist cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dwd_etl",
			Name:      "pipeline_running",
			Help:      "1 when the sync loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.ResourcesDiscovered,
		m.Fetches,
		m.RecordsParsed,
		m.ParseErrors,
		m.DedupDropped,
		m.SyncDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ResourcesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dwd_etl", Name: "resources_discovered_total"}),
		Fetches:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dwd_etl", Name: "fetches_total"}, []string{"kind", "outcome"}),
		RecordsParsed:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dwd_etl", Name: "records_parsed_total"}, []string{"kind"}),
		ParseErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dwd_etl", Name: "parse_errors_total"}),
		DedupDropped:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dwd_etl", Name: "dedup_dropped_total"}),
		SyncDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dwd_etl", Name: "sync_duration_seconds"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dwd_etl", Name: "pipeline_running"}),
	}
}
