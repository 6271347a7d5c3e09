package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// field-report pipeline.
type Metrics struct {
	FixesConsumed   prometheus.Counter
	ReportsProduced prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Model evaluation metrics.
	Evaluations        *prometheus.CounterVec // labels: outcome={ok,out_of_range,rejected}
	EvaluationDuration prometheus.Histogram
	EvalCache          *prometheus.CounterVec // labels: result={hit,miss}
	ZoneReports        *prometheus.CounterVec // labels: zone={nominal,caution,blackout}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FixesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "fixes_consumed_total",
			Help:      "Total position fixes read from the source topic.",
		}),
		ReportsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "reports_produced_total",
			Help:      "Total field reports written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geomag_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geomag_etl",
			Name:      "batch_size",
			Help:      "Number of fixes per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geomag_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "evaluations_total",
			Help:      "Model evaluations by outcome.",
		}, []string{"outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geomag_etl",
			Name:      "evaluation_duration_seconds",
			Help:      "Spherical-harmonic synthesis duration in seconds.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		EvalCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "eval_cache_total",
			Help:      "Evaluation cache lookups by result.",
		}, []string{"result"}),
		ZoneReports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geomag_etl",
			Name:      "zone_reports_total",
			Help:      "Produced reports by compass-reliability zone.",
		}, []string{"zone"}),
	}

	prometheus.MustRegister(
		m.FixesConsumed,
		m.ReportsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Evaluations,
		m.EvaluationDuration,
		m.EvalCache,
		m.ZoneReports,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FixesConsumed:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "fixes_consumed_total"}),
		ReportsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "reports_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "geomag_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "geomag_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "geomag_etl", Name: "batch_processing_duration_seconds"}),
		Evaluations:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "evaluations_total"}, []string{"outcome"}),
		EvaluationDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "geomag_etl", Name: "evaluation_duration_seconds"}),
		EvalCache:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "eval_cache_total"}, []string{"result"}),
		ZoneReports:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "geomag_etl", Name: "zone_reports_total"}, []string{"zone"}),
	}
}
